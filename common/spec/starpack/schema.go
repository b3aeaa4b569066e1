package starpack

import (
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const packageSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["package"],
  "properties": {
    "package": {
      "type": "object",
      "required": ["metadata", "artifacts", "steps"],
      "properties": {
        "metadata": {"$ref": "#/definitions/metadata"},
        "artifacts": {
          "type": "object",
          "required": ["root"],
          "properties": {
            "root": {"type": "string", "minLength": 1},
            "inference": {"type": "string"},
            "dependencies": {"type": "string"}
          }
        },
        "steps": {"type": "array", "items": {"$ref": "#/definitions/step"}}
      }
    }
  },
  "definitions": {
    "metadata": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "version": {"type": ["string", "number"]},
        "description": {"type": "string"}
      }
    },
    "step": {
      "type": "object",
      "required": ["name"],
      "properties": {"name": {"type": "string", "minLength": 1}}
    }
  }
}`

const deploymentSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["deployment"],
  "properties": {
    "deployment": {
      "type": "object",
      "required": ["metadata", "steps"],
      "properties": {
        "metadata": {
          "type": "object",
          "required": ["name"],
          "properties": {
            "name": {"type": "string", "minLength": 1},
            "version": {"type": ["string", "number"]}
          }
        },
        "steps": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["name"],
            "properties": {
              "name": {"type": "string", "minLength": 1},
              "package": {
                "type": "object",
                "required": ["name"],
                "properties": {
                  "name": {"type": "string", "minLength": 1},
                  "tag": {"type": ["string", "number"]}
                }
              }
            }
          }
        }
      }
    }
  }
}`

var (
	packageSchema    = jsonschema.MustCompileString("starpack-package.json", packageSchemaJSON)
	deploymentSchema = jsonschema.MustCompileString("starpack-deployment.json", deploymentSchemaJSON)
)
