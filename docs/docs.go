// Package docs holds the swagger document served under /swagger.
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
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "Registration data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.UserResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login user",
                "parameters": [
                    {"description": "Login credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.AuthResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Logout the current session",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/auth/logout-all": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Logout every session of the current user",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.LogoutAllResponse"}}, "401": {"description": "Unauthorized"}}
            }
        },
        "/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.UserResponse"}}, "401": {"description": "Unauthorized"}}
            }
        },
        "/semesters": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["semesters"],
                "summary": "List semesters",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["semesters"],
                "summary": "Create a semester",
                "parameters": [
                    {"description": "Semester", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CreateSemesterRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}}
            }
        },
        "/courses": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["courses"],
                "summary": "Create a course in a semester",
                "parameters": [
                    {"description": "Course", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CreateCourseRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}
            }
        },
        "/enrollments": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["enrollments"],
                "summary": "Enroll a student in a course",
                "parameters": [
                    {"description": "Enrollment", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.EnrollRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}
            }
        },
        "/attendance": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["attendance"],
                "summary": "Mark attendance",
                "parameters": [
                    {"description": "Attendance", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.MarkAttendanceRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}
            }
        },
        "/attendance/students/{id}/summary": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["attendance"],
                "summary": "Attendance summary of a student",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Semester ID", "name": "semesterId", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        },
        "/attendance/courses/{id}/summary": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["attendance"],
                "summary": "Attendance summary of a course",
                "parameters": [
                    {"type": "string", "description": "Course ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        },
        "/attendance/at-risk": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["attendance"],
                "summary": "Students below the attendance threshold",
                "parameters": [
                    {"type": "string", "description": "Semester ID", "name": "semesterId", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        }
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "error": {"type": "string"}}
        },
        "handler.RegisterRequest": {
            "type": "object",
            "required": ["email", "firstName", "lastName", "password", "role"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "role": {"type": "string", "enum": ["STUDENT", "FACULTY"]},
                "studentId": {"type": "string"},
                "employeeId": {"type": "string"},
                "section": {"type": "string"},
                "year": {"type": "integer"}
            }
        },
        "handler.LoginRequest": {
            "type": "object",
            "required": ["identifier", "password"],
            "properties": {"identifier": {"type": "string"}, "password": {"type": "string"}}
        },
        "handler.UserResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "role": {"type": "string"},
                "studentId": {"type": "string"},
                "employeeId": {"type": "string"}
            }
        },
        "handler.AuthResponse": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "user": {"$ref": "#/definitions/handler.UserResponse"}}
        },
        "handler.LogoutAllResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "sessions": {"type": "integer"}}
        },
        "handler.CreateSemesterRequest": {
            "type": "object",
            "required": ["code", "endDate", "name", "startDate", "year"],
            "properties": {
                "name": {"type": "string"},
                "code": {"type": "string"},
                "year": {"type": "integer"},
                "startDate": {"type": "string", "example": "2024-01-01"},
                "endDate": {"type": "string", "example": "2024-03-30"}
            }
        },
        "handler.CreateCourseRequest": {
            "type": "object",
            "required": ["code", "name", "semesterId"],
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "semesterId": {"type": "string"},
                "facultyId": {"type": "string"}
            }
        },
        "handler.EnrollRequest": {
            "type": "object",
            "required": ["courseId", "userId"],
            "properties": {"userId": {"type": "string"}, "courseId": {"type": "string"}}
        },
        "handler.MarkAttendanceRequest": {
            "type": "object",
            "required": ["date", "status", "userId"],
            "properties": {
                "userId": {"type": "string"},
                "courseId": {"type": "string"},
                "date": {"type": "string", "example": "2024-02-05"},
                "status": {"type": "string", "enum": ["PRESENT", "ABSENT", "LATE"]}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the session token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "Campus API",
	Description:      "Campus management API with session-backed authentication, semesters, enrollments and attendance.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
