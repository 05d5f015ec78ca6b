// Package docs holds the OpenAPI document served under /swagger.
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
        "/auth/signup": {
            "post": {
                "description": "Creates a user, a default organization and the membership binding them, and returns an access token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a user",
                "parameters": [
                    {"description": "Registration details", "name": "user", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.SignupInput"}}
                ],
                "responses": {
                    "201": {"description": "Registration successful", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Registration unsuccessful", "schema": {"type": "object", "additionalProperties": true}},
                    "422": {"description": "Validation error or duplicate email", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "description": "Authenticates user with email and password, returns an access token valid for one hour",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "User login",
                "parameters": [
                    {"description": "Login credentials", "name": "credentials", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.LoginInput"}}
                ],
                "responses": {
                    "200": {"description": "Login successful", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Authentication failed", "schema": {"type": "object", "additionalProperties": true}},
                    "422": {"description": "Validation error", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the currently authenticated user's information",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Get current user",
                "responses": {
                    "200": {"description": "User data", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the public record of a user",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get user",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "User data", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "User does not exist", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/organizations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns every organization the authenticated user belongs to",
                "produces": ["application/json"],
                "tags": ["organizations"],
                "summary": "List organizations",
                "responses": {
                    "200": {"description": "Organizations", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": true}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Creates an organization and makes the authenticated user a member",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["organizations"],
                "summary": "Create organization",
                "parameters": [
                    {"description": "Organization", "name": "organization", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.CreateOrganizationInput"}}
                ],
                "responses": {
                    "201": {"description": "Organization successfully created", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Client error", "schema": {"type": "object", "additionalProperties": true}},
                    "422": {"description": "Validation error", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/organizations/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns an organization if the authenticated user is a member",
                "produces": ["application/json"],
                "tags": ["organizations"],
                "summary": "Get organization",
                "parameters": [
                    {"type": "string", "description": "Organization ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Organization", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": true}},
                    "403": {"description": "Not a member", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Organization does not exist", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/organizations/{orgId}/users": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Adds an existing user to an existing organization",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["organizations"],
                "summary": "Add member",
                "parameters": [
                    {"type": "string", "description": "Organization ID", "name": "orgId", "in": "path", "required": true},
                    {"description": "User to add", "name": "member", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.AddMemberInput"}}
                ],
                "responses": {
                    "200": {"description": "User added to organization", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "User or organization does not exist", "schema": {"type": "object", "additionalProperties": true}},
                    "422": {"description": "Validation error", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "ok", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "store unavailable", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "models.SignupInput": {
            "type": "object",
            "required": ["email", "firstname", "lastname", "password"],
            "properties": {
                "email": {"type": "string"},
                "firstname": {"type": "string"},
                "lastname": {"type": "string"},
                "password": {"type": "string"},
                "phone": {"type": "string"}
            }
        },
        "models.LoginInput": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "models.CreateOrganizationInput": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string", "maxLength": 255},
                "description": {"type": "string", "maxLength": 1024}
            }
        },
        "models.AddMemberInput": {
            "type": "object",
            "required": ["userId"],
            "properties": {
                "userId": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "orgauth API",
	Description:      "User authentication and organization membership service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
