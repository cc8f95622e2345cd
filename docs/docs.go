// Package docs registers the OpenAPI document served under /swagger/.
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
                "description": "Create a new user with name, email and password. Password is stored salted and hashed.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "Sign up a new user",
                "parameters": [
                    {
                        "description": "Sign-up data",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/controllers.SignUpRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "data contains the created user",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "400": {
                        "description": "error.code: bad_request",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "409": {
                        "description": "error.code: conflict (email already registered)",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "500": {
                        "description": "error.code: internal_error",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    }
                }
            }
        },
        "/auth/login": {
            "post": {
                "description": "Authenticate with email and password. Returns a bearer JWT whose subject is the user id.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "Log in",
                "parameters": [
                    {
                        "description": "Login credentials",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/controllers.LoginRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "data contains token and token_type",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "400": {
                        "description": "error.code: bad_request",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "401": {
                        "description": "error.code: unauthorized",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "500": {
                        "description": "error.code: internal_error",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    }
                }
            }
        },
        "/event": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Public events plus the caller's own private events, ordered by date. Each event carries its organizer's name and email.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "events"
                ],
                "summary": "List visible events",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/controllers.EventListSuccessResponse"
                        }
                    },
                    "401": {
                        "description": "error.code: unauthorized",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "404": {
                        "description": "error.code: not_found (user)",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "500": {
                        "description": "error.code: internal_error",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    }
                }
            },
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Create an event. The authenticated user becomes its organizer. type defaults to public.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "events"
                ],
                "summary": "Create a new event",
                "parameters": [
                    {
                        "description": "Event data",
                        "name": "event",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/controllers.CreateEventRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "data contains the created event",
                        "schema": {
                            "$ref": "#/definitions/controllers.EventSuccessResponse"
                        }
                    },
                    "400": {
                        "description": "error.code: bad_request",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "401": {
                        "description": "error.code: unauthorized",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "404": {
                        "description": "error.code: not_found (organizer)",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "500": {
                        "description": "error.code: internal_error",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    }
                }
            }
        },
        "/event/search": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Filters the visible events. Unparseable dates and unknown types are ignored.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "events"
                ],
                "summary": "Search visible events",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Case-insensitive match on title or description",
                        "name": "search",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Case-insensitive match on location",
                        "name": "location",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "public or private",
                        "name": "type",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Inclusive lower bound (RFC 3339 or YYYY-MM-DD)",
                        "name": "fromDate",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Inclusive upper bound (RFC 3339 or YYYY-MM-DD)",
                        "name": "toDate",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/controllers.SearchEventsSuccessResponse"
                        }
                    },
                    "401": {
                        "description": "error.code: unauthorized",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "404": {
                        "description": "error.code: not_found (user)",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "500": {
                        "description": "error.code: internal_error",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    }
                }
            }
        },
        "/event/{eventID}": {
            "put": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Organizer-only. Omitted fields are unchanged. Attendees are emailed after the response.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "events"
                ],
                "summary": "Update an event",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Event ID (UUID)",
                        "name": "eventID",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Fields to update (all optional)",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/controllers.UpdateEventRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "data contains the updated event",
                        "schema": {
                            "$ref": "#/definitions/controllers.EventSuccessResponse"
                        }
                    },
                    "400": {
                        "description": "error.code: bad_request",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "401": {
                        "description": "error.code: unauthorized",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "403": {
                        "description": "error.code: forbidden (not organizer)",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "404": {
                        "description": "error.code: not_found",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "500": {
                        "description": "error.code: internal_error",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    }
                }
            },
            "delete": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Organizer-only. Removes the event and its tickets. Attendees are emailed after the response.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "events"
                ],
                "summary": "Delete an event",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Event ID (UUID)",
                        "name": "eventID",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "data contains id and deleted",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "400": {
                        "description": "error.code: bad_request",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "401": {
                        "description": "error.code: unauthorized",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "403": {
                        "description": "error.code: forbidden (not organizer)",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "404": {
                        "description": "error.code: not_found",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "500": {
                        "description": "error.code: internal_error",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    }
                }
            }
        },
        "/event/registerEvent/{eventID}": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Issues one ticket per user and event. The price is captured from the event's tier table. The body may be omitted (tier defaults to regular).",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "tickets"
                ],
                "summary": "Register for an event",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Event ID (UUID)",
                        "name": "eventID",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Ticket tier",
                        "name": "body",
                        "in": "body",
                        "schema": {
                            "$ref": "#/definitions/controllers.RegisterEventRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "data contains ticket_id, tier, price and verification_link",
                        "schema": {
                            "$ref": "#/definitions/controllers.RegistrationSuccessResponse"
                        }
                    },
                    "400": {
                        "description": "error.code: bad_request",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "401": {
                        "description": "error.code: unauthorized",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "404": {
                        "description": "error.code: not_found",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "409": {
                        "description": "error.code: conflict (already registered)",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "500": {
                        "description": "error.code: internal_error",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    }
                }
            }
        },
        "/event/verify/{ticketID}": {
            "patch": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Organizer-only. Marks the ticket verified and records the holder as an attendee. Verifying twice succeeds with the same result.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "tickets"
                ],
                "summary": "Verify a ticket",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Ticket ID (UUID)",
                        "name": "ticketID",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "data contains event and user",
                        "schema": {
                            "$ref": "#/definitions/controllers.VerificationSuccessResponse"
                        }
                    },
                    "400": {
                        "description": "error.code: bad_request",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "401": {
                        "description": "error.code: unauthorized",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "403": {
                        "description": "error.code: forbidden (not organizer)",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "404": {
                        "description": "error.code: not_found",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "500": {
                        "description": "error.code: internal_error",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    }
                }
            }
        },
        "/event/getRegisteredEvents": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Tickets held by the caller joined with their events, ordered by event date.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "tickets"
                ],
                "summary": "List my registrations",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/controllers.RegisteredEventsSuccessResponse"
                        }
                    },
                    "401": {
                        "description": "error.code: unauthorized",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "404": {
                        "description": "error.code: not_found (user)",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    },
                    "500": {
                        "description": "error.code: internal_error",
                        "schema": {
                            "$ref": "#/definitions/helpers.APIResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "helpers.APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "helpers.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {
                    "$ref": "#/definitions/helpers.APIError"
                }
            }
        },
        "controllers.SignUpRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                }
            }
        },
        "controllers.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                }
            }
        },
        "controllers.CreateEventRequest": {
            "type": "object",
            "properties": {
                "title": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "date": {
                    "type": "string",
                    "example": "2026-05-01T18:00:00Z"
                },
                "location": {
                    "type": "string"
                },
                "type": {
                    "type": "string",
                    "enum": [
                        "public",
                        "private"
                    ]
                },
                "ticket_price": {
                    "type": "number"
                },
                "ticket_tiers": {
                    "$ref": "#/definitions/domain.TicketTiers"
                }
            }
        },
        "controllers.UpdateEventRequest": {
            "type": "object",
            "properties": {
                "title": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "date": {
                    "type": "string"
                },
                "location": {
                    "type": "string"
                },
                "type": {
                    "type": "string",
                    "enum": [
                        "public",
                        "private"
                    ]
                },
                "ticket_price": {
                    "type": "number"
                },
                "ticket_tiers": {
                    "$ref": "#/definitions/domain.TicketTiers"
                }
            }
        },
        "controllers.RegisterEventRequest": {
            "type": "object",
            "properties": {
                "tier": {
                    "type": "string",
                    "enum": [
                        "regular",
                        "vip"
                    ]
                }
            }
        },
        "controllers.SearchEventsResponse": {
            "type": "object",
            "properties": {
                "events": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.Event"
                    }
                },
                "count": {
                    "type": "integer"
                }
            }
        },
        "controllers.EventSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {
                    "$ref": "#/definitions/domain.Event"
                },
                "error": {
                    "$ref": "#/definitions/helpers.APIError"
                }
            }
        },
        "controllers.EventListSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.Event"
                    }
                },
                "error": {
                    "$ref": "#/definitions/helpers.APIError"
                }
            }
        },
        "controllers.SearchEventsSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {
                    "$ref": "#/definitions/controllers.SearchEventsResponse"
                },
                "error": {
                    "$ref": "#/definitions/helpers.APIError"
                }
            }
        },
        "controllers.RegistrationSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {
                    "$ref": "#/definitions/domain.Registration"
                },
                "error": {
                    "$ref": "#/definitions/helpers.APIError"
                }
            }
        },
        "controllers.VerificationSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {
                    "$ref": "#/definitions/domain.VerificationResult"
                },
                "error": {
                    "$ref": "#/definitions/helpers.APIError"
                }
            }
        },
        "controllers.RegisteredEventsSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.RegisteredEvent"
                    }
                },
                "error": {
                    "$ref": "#/definitions/helpers.APIError"
                }
            }
        },
        "domain.TicketTiers": {
            "type": "object",
            "properties": {
                "regular": {
                    "type": "number"
                },
                "vip": {
                    "type": "number"
                }
            }
        },
        "domain.EventOrganizer": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                }
            }
        },
        "domain.Event": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "date": {
                    "type": "string"
                },
                "location": {
                    "type": "string"
                },
                "type": {
                    "type": "string",
                    "enum": [
                        "public",
                        "private"
                    ]
                },
                "organizer_id": {
                    "type": "string"
                },
                "organizer": {
                    "$ref": "#/definitions/domain.EventOrganizer"
                },
                "attendees": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "ticket_price": {
                    "type": "number"
                },
                "ticket_tiers": {
                    "$ref": "#/definitions/domain.TicketTiers"
                },
                "created_at": {
                    "type": "string"
                },
                "updated_at": {
                    "type": "string"
                }
            }
        },
        "domain.Registration": {
            "type": "object",
            "properties": {
                "ticket_id": {
                    "type": "string"
                },
                "tier": {
                    "type": "string"
                },
                "price": {
                    "type": "number"
                },
                "verification_link": {
                    "type": "string"
                }
            }
        },
        "domain.VerificationResult": {
            "type": "object",
            "properties": {
                "ticket_id": {
                    "type": "string"
                },
                "event_id": {
                    "type": "string"
                },
                "event": {
                    "type": "string"
                },
                "user_id": {
                    "type": "string"
                },
                "user": {
                    "type": "string"
                }
            }
        },
        "domain.RegisteredEvent": {
            "type": "object",
            "properties": {
                "ticket_id": {
                    "type": "string"
                },
                "event_id": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "date": {
                    "type": "string"
                },
                "location": {
                    "type": "string"
                },
                "tier": {
                    "type": "string"
                },
                "price": {
                    "type": "number"
                },
                "verified": {
                    "type": "boolean"
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the JWT.",
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
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Event Ticketing API",
	Description:      "Organizers publish events, attendees register for tickets, organizers verify tickets at the door.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
