package server

import "github.com/swaggo/swag"

// @title NetShield API
// @version 1.0
// @description Phishing risk scoring and network identity for the NetShield browser extension.
// @contact.name NetShield Maintainers
// @contact.url https://github.com/raysh454/netshield
// @BasePath /

// swaggerInfo is served at /swagger/doc.json. It is maintained by hand
// alongside the handler annotations.
var swaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "NetShield API",
	Description:      "Phishing risk scoring and network identity for the NetShield browser extension.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(swaggerInfo.InstanceName(), swaggerInfo)
}

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "{{.Title}}",
    "description": "{{escape .Description}}",
    "version": "{{.Version}}"
  },
  "basePath": "{{.BasePath}}",
  "paths": {
    "/check": {
      "post": {
        "summary": "Score a URL",
        "consumes": ["application/json"],
        "produces": ["application/json"],
        "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/CheckRequest"}}],
        "responses": {
          "200": {"description": "OK", "schema": {"$ref": "#/definitions/RiskResult"}},
          "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
        }
      }
    },
    "/check/page": {
      "post": {
        "summary": "Fetch, analyse and score a page",
        "consumes": ["application/json"],
        "produces": ["application/json"],
        "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/PageCheckRequest"}}],
        "responses": {
          "200": {"description": "OK", "schema": {"$ref": "#/definitions/PageCheck"}},
          "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
        }
      }
    },
    "/check/batch": {
      "post": {
        "summary": "Fetch, analyse and score several pages",
        "consumes": ["application/json"],
        "produces": ["application/json"],
        "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/BatchCheckRequest"}}],
        "responses": {
          "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/PageCheck"}}},
          "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
        }
      }
    },
    "/report": {
      "get": {
        "summary": "Page check plus network identity",
        "produces": ["application/json"],
        "parameters": [{"in": "query", "name": "url", "type": "string", "required": true}],
        "responses": {
          "200": {"description": "OK"},
          "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
        }
      }
    },
    "/network": {
      "get": {
        "summary": "Public network identity of the host running NetShield",
        "produces": ["application/json"],
        "responses": {
          "200": {"description": "OK", "schema": {"$ref": "#/definitions/NetworkInfo"}},
          "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/ErrorResponse"}}
        }
      }
    },
    "/checks": {
      "get": {
        "summary": "Recorded checks, newest first",
        "produces": ["application/json"],
        "parameters": [{"in": "query", "name": "limit", "type": "integer"}],
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/checks/{id}": {
      "get": {
        "summary": "One recorded check",
        "produces": ["application/json"],
        "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
        "responses": {
          "200": {"description": "OK"},
          "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
        }
      }
    },
    "/healthz": {
      "get": {"summary": "Liveness", "responses": {"200": {"description": "OK"}}}
    }
  },
  "definitions": {
    "PageSignals": {
      "type": "object",
      "properties": {
        "hasLoginForm": {"type": "boolean"},
        "hiddenIframeCount": {"type": "integer"}
      }
    },
    "CheckRequest": {
      "type": "object",
      "properties": {
        "url": {"type": "string", "example": "http://192.168.1.1/login"},
        "pageSignals": {"$ref": "#/definitions/PageSignals"}
      }
    },
    "PageCheckRequest": {
      "type": "object",
      "properties": {"url": {"type": "string", "example": "https://example.com/signin"}}
    },
    "BatchCheckRequest": {
      "type": "object",
      "properties": {
        "urls": {"type": "array", "items": {"type": "string"}},
        "concurrency": {"type": "integer"}
      }
    },
    "RiskResult": {
      "type": "object",
      "properties": {
        "url": {"type": "string"},
        "riskScore": {"type": "integer", "minimum": 0, "maximum": 100},
        "level": {"type": "string", "enum": ["safe", "warning", "danger", "unknown"]},
        "safe": {"type": "boolean"},
        "risks": {"type": "array", "items": {"type": "string"}},
        "safeIndicators": {"type": "array", "items": {"type": "string"}},
        "error": {"type": "string"}
      }
    },
    "PageCheck": {
      "type": "object",
      "properties": {
        "result": {"$ref": "#/definitions/RiskResult"},
        "pageError": {"type": "string"},
        "checkId": {"type": "string"}
      }
    },
    "NetworkInfo": {
      "type": "object",
      "properties": {
        "ip": {"type": "string"},
        "isp": {"type": "string"},
        "country": {"type": "string"},
        "region": {"type": "string"},
        "city": {"type": "string"},
        "timezone": {"type": "string"},
        "source": {"type": "string"}
      }
    },
    "ErrorResponse": {
      "type": "object",
      "properties": {"error": {"type": "string", "example": "not found"}}
    }
  }
}`
