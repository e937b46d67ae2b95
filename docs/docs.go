// Package docs holds the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/v1/signup": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign up",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.signUpRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/auth/v1/token": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in with password",
                "parameters": [
                    {"type": "string", "description": "Must be password", "name": "grant_type", "in": "query", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.credentialsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/auth/v1/user": {
            "get": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Identity"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/auth/v1/logout": {
            "post": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Sign out",
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/auth/v1/admin/users/{id}": {
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["auth"],
                "summary": "Delete a user (privileged)",
                "parameters": [{"type": "string", "description": "Identity id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/rest/v1/rpc/delete_user": {
            "post": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Delete the current user",
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/rest/v1/{table}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["rest"],
                "summary": "List rows",
                "parameters": [{"type": "string", "description": "lost_found_posts, job_posts or news_posts", "name": "table", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"type": "object"}}}}
            },
            "post": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rest"],
                "summary": "Insert a row",
                "parameters": [{"type": "string", "description": "Table name", "name": "table", "in": "path", "required": true}],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "object"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["rest"],
                "summary": "Delete all rows of an owner",
                "parameters": [
                    {"type": "string", "description": "Table name", "name": "table", "in": "path", "required": true},
                    {"type": "string", "description": "Owner identity id", "name": "owner_id", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.deletedResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/rest/v1/{table}/{id}": {
            "patch": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rest"],
                "summary": "Update a row",
                "parameters": [
                    {"type": "string", "description": "Table name", "name": "table", "in": "path", "required": true},
                    {"type": "string", "description": "Row id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "tags": ["rest"],
                "summary": "Delete a row",
                "parameters": [
                    {"type": "string", "description": "Table name", "name": "table", "in": "path", "required": true},
                    {"type": "string", "description": "Row id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/storage/v1/images": {
            "post": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["storage"],
                "summary": "Upload an image",
                "parameters": [{"type": "file", "description": "Image, at most 5 MiB", "name": "file", "in": "formData", "required": true}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.uploadResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.readinessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.readinessResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "code": {"type": "string"}}
        },
        "domain.Identity": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["member", "admin"]},
                "created_at": {"type": "string"}
            }
        },
        "handler.signUpRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 6},
                "data": {"type": "object", "properties": {"role": {"type": "string", "enum": ["member", "admin"]}}}
            }
        },
        "handler.credentialsRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "handler.sessionResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "token_type": {"type": "string"},
                "expires_at": {"type": "integer"},
                "user": {"$ref": "#/definitions/domain.Identity"}
            }
        },
        "handler.deletedResponse": {
            "type": "object",
            "properties": {"deleted": {"type": "integer"}}
        },
        "handler.uploadResponse": {
            "type": "object",
            "properties": {"url": {"type": "string"}}
        },
        "handler.readinessResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "dependencies": {"type": "object", "additionalProperties": {"type": "object"}}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "apikey", "in": "header"},
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Community Board API",
	Description:      "Auth, tables and image storage for the community board.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
