package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "ClassCoin API",
        "description": "Classroom mission and coin economy engine",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Authentication", "description": "Signup and login"},
        {"name": "Users", "description": "Account helpers and profile"},
        {"name": "Missions", "description": "Mission catalog, submissions and review"},
        {"name": "Classes", "description": "Classroom ledger and character"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a student or teacher",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"},
                    "409": {"description": "User id already exists"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate with login id and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/users/check-id": {
            "get": {
                "tags": ["Users"],
                "summary": "Check login id availability",
                "parameters": [
                    {"name": "userId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/profile": {
            "get": {
                "tags": ["Users"],
                "summary": "Get own profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/missions/complete": {
            "post": {
                "tags": ["Missions"],
                "summary": "Submit a mission completion",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitMissionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"},
                    "403": {"description": "Students only"}
                }
            }
        },
        "/missions/daily": {
            "get": {
                "tags": ["Missions"],
                "summary": "Today's regular mission pick",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/missions/emergency": {
            "get": {
                "tags": ["Missions"],
                "summary": "List emergency missions visible to the caller",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Missions"],
                "summary": "Create an emergency mission",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEmergencyMissionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Teachers only"}
                }
            }
        },
        "/missions/pending": {
            "get": {
                "tags": ["Missions"],
                "summary": "List submissions awaiting review",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Teachers only"}
                }
            }
        },
        "/missions/{logId}/review": {
            "post": {
                "tags": ["Missions"],
                "summary": "Approve or reject a pending submission",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "logId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewSubmissionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Submission not found"},
                    "409": {"description": "Already reviewed"}
                }
            }
        },
        "/classes/character": {
            "get": {
                "tags": ["Classes"],
                "summary": "Resolve the classroom character",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "educationOfficeCode", "in": "query", "type": "string"},
                    {"name": "schoolCode", "in": "query", "type": "string"},
                    {"name": "grade", "in": "query", "type": "integer"},
                    {"name": "classNumber", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing classroom tuple"}
                }
            }
        },
        "/classes/coin": {
            "patch": {
                "tags": ["Classes"],
                "summary": "Manually credit a classroom",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/IncrementCoinRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Teachers only"}
                }
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "required": ["role", "name", "userId", "password", "school", "educationOfficeCode", "schoolCode"],
            "properties": {
                "role": {"type": "string", "enum": ["student", "teacher"]},
                "name": {"type": "string"},
                "userId": {"type": "string"},
                "password": {"type": "string"},
                "school": {"type": "string"},
                "educationOfficeCode": {"type": "string"},
                "schoolCode": {"type": "string"},
                "grade": {"type": "integer"},
                "class": {"type": "integer"},
                "studentNumber": {"type": "integer"},
                "subject": {"type": "string"},
                "homeroomGrade": {"type": "integer"},
                "homeroomClass": {"type": "integer"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["userId", "password"],
            "properties": {
                "userId": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "SubmitMissionRequest": {
            "type": "object",
            "required": ["missionId", "missionType"],
            "properties": {
                "missionId": {"type": "string"},
                "missionType": {"type": "string", "enum": ["regular", "emergency"]},
                "date": {"type": "string", "description": "8-digit YYYYMMDD key, defaults to today"}
            }
        },
        "CreateEmergencyMissionRequest": {
            "type": "object",
            "required": ["title", "description"],
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "deadline": {"type": "string", "format": "date-time"},
                "grade": {"type": "integer"},
                "classNumber": {"type": "integer"}
            }
        },
        "ReviewSubmissionRequest": {
            "type": "object",
            "required": ["action"],
            "properties": {
                "action": {"type": "string", "enum": ["approve", "reject"]},
                "rejectionReason": {"type": "string"}
            }
        },
        "IncrementCoinRequest": {
            "type": "object",
            "required": ["coinDelta"],
            "properties": {
                "educationOfficeCode": {"type": "string"},
                "schoolCode": {"type": "string"},
                "grade": {"type": "integer"},
                "classNumber": {"type": "integer"},
                "coinDelta": {"type": "number"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
