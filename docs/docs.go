// Package docs holds the OpenAPI description served under /docs.
// Regenerate with: swag init -g cmd/server/main.go
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
        "/api/auth/signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Create a local account",
                "parameters": [
                    {"description": "signup", "name": "payload", "in": "body", "required": true,
                     "schema": {"$ref": "#/definitions/http.signupReq"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.envelope"}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "description": "Sets the session cookie and returns the token in the payload.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login with email and password",
                "parameters": [
                    {"description": "login", "name": "payload", "in": "body", "required": true,
                     "schema": {"$ref": "#/definitions/http.loginReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.envelope"}}
                }
            }
        },
        "/api/auth/google": {
            "get": {
                "tags": ["auth"],
                "summary": "Start Google sign-in",
                "responses": {"302": {"description": "Found"}}
            }
        },
        "/api/auth/google/callback": {
            "get": {
                "description": "Redirects to <client>/callback-google?token=... on success.",
                "tags": ["auth"],
                "summary": "Google redirect target",
                "parameters": [
                    {"type": "string", "description": "authorization code", "name": "code", "in": "query", "required": true}
                ],
                "responses": {
                    "302": {"description": "Found"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/http.envelope"}}
                }
            }
        },
        "/api/auth/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Clear the session cookie",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/http.envelope"}}}
            }
        },
        "/api/auth/forgot-password": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Request a password reset link",
                "parameters": [
                    {"description": "email", "name": "payload", "in": "body", "required": true,
                     "schema": {"$ref": "#/definitions/http.forgotReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.envelope"}}
                }
            }
        },
        "/api/auth/reset-password/{token}": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Set a new password with a reset token",
                "parameters": [
                    {"type": "string", "description": "reset token", "name": "token", "in": "path", "required": true},
                    {"description": "new password", "name": "payload", "in": "body", "required": true,
                     "schema": {"$ref": "#/definitions/http.resetReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "410": {"description": "Gone", "schema": {"$ref": "#/definitions/http.envelope"}}
                }
            }
        },
        "/api/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.envelope"}}
                }
            }
        }
    },
    "definitions": {
        "http.envelope": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "payload": {}}
        },
        "http.signupReq": {
            "type": "object",
            "properties": {
                "email": {"type": "string"}, "name": {"type": "string"},
                "password": {"type": "string"}, "repassword": {"type": "string"}
            }
        },
        "http.loginReq": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "http.forgotReq": {
            "type": "object",
            "properties": {"email": {"type": "string"}}
        },
        "http.resetReq": {
            "type": "object",
            "properties": {"password": {"type": "string"}, "rePassword": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Account API",
	Description:      "Signup, login, Google sign-in and password reset.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
