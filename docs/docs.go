// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with `swag init -g cmd/api/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/groups": {
            "get": {"tags": ["groups"], "summary": "List groups", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["groups"], "summary": "Create a new group", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/groups/{id}": {
            "get": {"tags": ["groups"], "summary": "Get group by ID", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"tags": ["groups"], "summary": "Update group details or settings", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["groups"], "summary": "Delete a group", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/groups/{id}/members": {
            "get": {"tags": ["memberships"], "summary": "List group members", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/groups/{id}/join": {
            "post": {"tags": ["memberships"], "summary": "Join a public group", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/groups/{id}/leave": {
            "post": {"tags": ["memberships"], "summary": "Leave a group", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/groups/{id}/invites": {
            "post": {"tags": ["memberships"], "summary": "Invite users", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/groups/{id}/requests": {
            "get": {"tags": ["memberships"], "summary": "List pending membership requests", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["memberships"], "summary": "Request membership", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/groups/{id}/activity": {
            "get": {"tags": ["activity"], "summary": "List group activity", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/groups/create": {
            "get": {"tags": ["group-create"], "summary": "Show group creation progress", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["group-create"], "summary": "Abandon group creation", "responses": {"204": {"description": "No Content"}}}
        },
        "/groups/create/{step}": {
            "post": {"tags": ["group-create"], "summary": "Save a group creation step", "parameters": [{"type": "string", "name": "step", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "201": {"description": "Created"}, "422": {"description": "Unprocessable Entity"}}}
        },
        "/me/invites": {
            "get": {"tags": ["memberships"], "summary": "List my invitations", "responses": {"200": {"description": "OK"}}}
        },
        "/notifications": {
            "get": {"tags": ["notifications"], "summary": "List my notifications", "responses": {"200": {"description": "OK"}}}
        },
        "/users": {
            "get": {"tags": ["users"], "summary": "List users", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["users"], "summary": "Create a user", "responses": {"201": {"description": "Created"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Groups API",
	Description:      "Groups with memberships, roles, invitations and membership requests.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
