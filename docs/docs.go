// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

// Package docs registers the OpenAPI document served under /swagger/.
//
// Regenerate with: swag init -g cmd/server/docs.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {
			"name": "GitHub Repository",
			"url": "https://github.com/tomtom215/daylight-gateway/issues"
		},
		"license": {
			"name": "AGPL-3.0-or-later",
			"url": "https://www.gnu.org/licenses/agpl-3.0.html"
		},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Core"
				],
				"summary": "Gateway status",
				"description": "Returns the service name, version and active auth mode",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/api.StatusResponse"
						}
					}
				}
			}
		},
		"/health": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Core"
				],
				"summary": "Liveness check",
				"description": "Always healthy while the process serves requests; remote services are not probed",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/api.HealthResponse"
						}
					}
				}
			}
		},
		"/v1/run": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Simulation"
				],
				"summary": "Run a daylight simulation",
				"description": "Computes obstruction angles, encodes and simulates every window concurrently, then merges the per-window results over the room polygon",
				"parameters": [
					{
						"description": "Room, windows and obstruction mesh",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/models.SimulationRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/api.SuccessResponse"
								},
								{
									"type": "object",
									"properties": {
										"result": {
											"$ref": "#/definitions/models.MergedResult"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"413": {
						"description": "Request Entity Too Large",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"429": {
						"description": "Too Many Requests",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"502": {
						"description": "Bad Gateway",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"503": {
						"description": "Service Unavailable",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"504": {
						"description": "Gateway Timeout",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/encode": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/octet-stream"
				],
				"tags": [
					"Simulation"
				],
				"summary": "Encode one window",
				"description": "Runs obstruction and encoding for a single window and returns the encoder's opaque payload",
				"parameters": [
					{
						"type": "string",
						"description": "Window name; optional when the request has one window",
						"name": "window",
						"in": "query"
					},
					{
						"description": "Room, windows and obstruction mesh",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/models.SimulationRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "file"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"502": {
						"description": "Bad Gateway",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/encode_raw": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/octet-stream"
				],
				"tags": [
					"Stages"
				],
				"summary": "Forward to the encoder",
				"parameters": [
					{
						"description": "Request forwarded to the remote service",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "file"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"502": {
						"description": "Bad Gateway",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"503": {
						"description": "Service Unavailable",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"504": {
						"description": "Gateway Timeout",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					}
				},
				"description": "Single-hop forward of an encode request; returns the encoder's binary payload"
			}
		},
		"/v1/obstruction": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Stages"
				],
				"summary": "Compute obstruction angles",
				"parameters": [
					{
						"description": "Request forwarded to the remote service",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"502": {
						"description": "Bad Gateway",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"503": {
						"description": "Service Unavailable",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"504": {
						"description": "Gateway Timeout",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					}
				},
				"description": "Forwards to the obstruction service. A window's corners (x1..z2) may be sent instead of x, y, z; the midpoint is used. Sweep parameters default to 17.5..162.5 degrees over 64 directions."
			}
		},
		"/v1/calculate-direction": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Stages"
				],
				"summary": "Forward a direction-angle query",
				"parameters": [
					{
						"description": "Request forwarded to the remote service",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"502": {
						"description": "Bad Gateway",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"503": {
						"description": "Service Unavailable",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"504": {
						"description": "Gateway Timeout",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/get-reference-point": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Stages"
				],
				"summary": "Forward a reference-point query",
				"parameters": [
					{
						"description": "Request forwarded to the remote service",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"502": {
						"description": "Bad Gateway",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"503": {
						"description": "Service Unavailable",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"504": {
						"description": "Gateway Timeout",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/merge": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Stages"
				],
				"summary": "Forward to the merger",
				"parameters": [
					{
						"description": "Request forwarded to the remote service",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"502": {
						"description": "Bad Gateway",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"503": {
						"description": "Service Unavailable",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"504": {
						"description": "Gateway Timeout",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/stats": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Stages"
				],
				"summary": "Forward to the statistics service",
				"parameters": [
					{
						"description": "Request forwarded to the remote service",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"502": {
						"description": "Bad Gateway",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"503": {
						"description": "Service Unavailable",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"504": {
						"description": "Gateway Timeout",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"api.ErrorResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string",
					"example": "error"
				},
				"error": {
					"type": "string"
				},
				"error_type": {
					"type": "string",
					"example": "UPSTREAM_ERROR"
				},
				"window": {
					"type": "string"
				},
				"stage": {
					"type": "string"
				},
				"request_id": {
					"type": "string"
				}
			}
		},
		"api.SuccessResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string",
					"example": "success"
				},
				"result": {}
			}
		},
		"api.StatusResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string",
					"example": "running"
				},
				"service": {
					"type": "string"
				},
				"version": {
					"type": "string"
				},
				"auth_mode": {
					"type": "string"
				}
			}
		},
		"api.HealthResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string",
					"example": "healthy"
				},
				"uptime_seconds": {
					"type": "number"
				}
			}
		},
		"models.SimulationRequest": {
			"type": "object",
			"required": [
				"mesh",
				"model_type",
				"parameters"
			],
			"properties": {
				"model_type": {
					"type": "string"
				},
				"parameters": {
					"$ref": "#/definitions/models.RoomParameters"
				},
				"mesh": {
					"type": "array",
					"items": {
						"type": "array",
						"items": {
							"type": "number"
						}
					}
				},
				"colorize": {
					"type": "boolean"
				}
			}
		},
		"models.RoomParameters": {
			"type": "object",
			"required": [
				"room_polygon",
				"windows"
			],
			"properties": {
				"height_roof_over_floor": {
					"type": "number"
				},
				"floor_height_above_terrain": {
					"type": "number"
				},
				"room_polygon": {
					"type": "array",
					"items": {
						"type": "array",
						"items": {
							"type": "number"
						}
					}
				},
				"windows": {
					"type": "object",
					"additionalProperties": {
						"$ref": "#/definitions/models.WindowSpec"
					}
				}
			}
		},
		"models.WindowSpec": {
			"type": "object",
			"required": [
				"x1",
				"y1",
				"z1",
				"x2",
				"y2",
				"z2",
				"window_frame_ratio"
			],
			"properties": {
				"x1": {
					"type": "number"
				},
				"y1": {
					"type": "number"
				},
				"z1": {
					"type": "number"
				},
				"x2": {
					"type": "number"
				},
				"y2": {
					"type": "number"
				},
				"z2": {
					"type": "number"
				},
				"window_frame_ratio": {
					"type": "number",
					"maximum": 1,
					"minimum": 0
				},
				"window_sill_height": {
					"type": "number"
				},
				"window_height": {
					"type": "number"
				},
				"direction_angle": {
					"type": "number"
				},
				"horizon": {
					"type": "array",
					"items": {
						"type": "number"
					}
				},
				"zenith": {
					"type": "array",
					"items": {
						"type": "number"
					}
				}
			}
		},
		"models.Stats": {
			"type": "object",
			"properties": {
				"mean": {
					"type": "number"
				},
				"median": {
					"type": "number"
				},
				"min": {
					"type": "number"
				},
				"max": {
					"type": "number"
				},
				"std": {
					"type": "number"
				}
			}
		},
		"models.MergedResult": {
			"type": "object",
			"properties": {
				"df_matrix": {
					"type": "array",
					"items": {
						"type": "array",
						"items": {
							"type": "number"
						}
					}
				},
				"room_mask": {
					"type": "array",
					"items": {
						"type": "array",
						"items": {
							"type": "number"
						}
					}
				},
				"shape": {
					"type": "array",
					"items": {
						"type": "integer"
					}
				},
				"windows": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"stats": {
					"$ref": "#/definitions/models.Stats"
				},
				"rgb": {},
				"direction_angles": {
					"type": "object",
					"additionalProperties": {
						"type": "number"
					}
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "Bearer token: the static API token or a JWT.",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	},
	"tags": [
		{
			"description": "Status and health",
			"name": "Core"
		},
		{
			"description": "Orchestrated simulation runs",
			"name": "Simulation"
		},
		{
			"description": "Single-hop access to individual remote services",
			"name": "Stages"
		}
	]
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8081",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Daylight Gateway API",
	Description:      "Orchestrates daylight simulations across remote obstruction, encoder, model and merge services.\n\nPOST /v1/run fans out one pipeline per window and merges the per-window matrices over the room polygon. A failure in any window fails the whole request.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
