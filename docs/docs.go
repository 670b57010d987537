// Package docs registers the OpenAPI document served at /swagger.
// Regenerate with `swag init -g cmd/api/main.go`.
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
        "/auth/signup": {"post": {"tags": ["auth"], "summary": "Create an account", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}, "422": {"description": "Unprocessable Entity"}, "429": {"description": "Too Many Requests"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Sign in with a password", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "429": {"description": "Too Many Requests"}}}},
        "/auth/refresh": {"post": {"tags": ["auth"], "summary": "Refresh a session", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/auth/logout": {"post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Sign out", "responses": {"204": {"description": "No Content"}}}},
        "/auth/session": {"get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Current session user", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/auth/events": {"get": {"security": [{"BearerAuth": []}], "produces": ["text/event-stream"], "tags": ["auth"], "summary": "Session event stream", "responses": {"200": {"description": "OK"}}}},
        "/profiles/me": {"patch": {"security": [{"BearerAuth": []}], "tags": ["profiles"], "summary": "Update own profile", "responses": {"200": {"description": "OK"}}}},
        "/profiles/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["profiles"], "summary": "Get a profile", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/profiles/{id}/role": {"put": {"security": [{"BearerAuth": []}], "tags": ["profiles"], "summary": "Set a user's role", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/v1/issues": {
            "get": {"tags": ["issues"], "summary": "List civic issues", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["issues"], "summary": "Report a civic issue", "responses": {"201": {"description": "Created"}, "401": {"description": "Unauthorized"}}}
        },
        "/v1/issues/{id}": {"get": {"tags": ["issues"], "summary": "Get an issue", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/v1/issues/{id}/status": {"patch": {"security": [{"BearerAuth": []}], "tags": ["issues"], "summary": "Move an issue to a new status", "responses": {"200": {"description": "OK"}, "422": {"description": "Unprocessable Entity"}}}},
        "/v1/issues/{id}/assign": {"patch": {"security": [{"BearerAuth": []}], "tags": ["issues"], "summary": "Assign an issue to a department", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/v1/dashboard": {"get": {"tags": ["pages"], "summary": "Platform statistics", "responses": {"200": {"description": "OK"}}}},
        "/v1/departments": {"get": {"tags": ["pages"], "summary": "Municipal departments", "responses": {"200": {"description": "OK"}}}},
        "/v1/training": {"get": {"tags": ["pages"], "summary": "Training modules", "responses": {"200": {"description": "OK"}}}},
        "/v1/training/{id}/advance": {"post": {"security": [{"BearerAuth": []}], "tags": ["pages"], "summary": "Complete the next lesson of a module", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/v1/leaderboard": {"get": {"tags": ["pages"], "summary": "Top reporters by resolved issues", "responses": {"200": {"description": "OK"}}}},
        "/v1/rewards": {"get": {"tags": ["marketplace"], "summary": "Marketplace rewards", "responses": {"200": {"description": "OK"}}}},
        "/v1/cart": {"get": {"security": [{"BearerAuth": []}], "tags": ["marketplace"], "summary": "Caller's cart", "responses": {"200": {"description": "OK"}}}},
        "/v1/cart/items": {"post": {"security": [{"BearerAuth": []}], "tags": ["marketplace"], "summary": "Add a reward to the cart", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/v1/cart/items/{id}": {"delete": {"security": [{"BearerAuth": []}], "tags": ["marketplace"], "summary": "Remove a reward from the cart", "responses": {"200": {"description": "OK"}}}},
        "/health": {"get": {"tags": ["health"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}},
        "/health/ready": {"get": {"tags": ["health"], "summary": "Readiness probe", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Click Clean Civic API",
	Description:      "Civic issue reporting, tracking and rewards.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
