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
				"tags": [
					"Auth"
				],
				"summary": "Register",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.RegisterRequest"
						}
					}
				],
				"consumes": [
					"application/json"
				]
			}
		},
		"/auth/login": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Login",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					},
					"423": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.LoginRequest"
						}
					}
				],
				"consumes": [
					"application/json"
				]
			}
		},
		"/auth/logout": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Logout",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/account": {
			"get": {
				"tags": [
					"Account"
				],
				"summary": "Account details",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/account/transactions": {
			"get": {
				"tags": [
					"Account"
				],
				"summary": "Transaction history",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "query",
						"name": "type",
						"type": "string"
					},
					{
						"in": "query",
						"name": "days",
						"type": "integer"
					}
				],
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/account/summary": {
			"get": {
				"tags": [
					"Account"
				],
				"summary": "Account summary",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/account/qr": {
			"get": {
				"tags": [
					"Account"
				],
				"summary": "Receive-money QR code",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "query",
						"name": "amount",
						"type": "integer"
					}
				],
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/account/deposit": {
			"post": {
				"tags": [
					"Account"
				],
				"summary": "Deposit",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.AmountRequest"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/account/withdraw": {
			"post": {
				"tags": [
					"Account"
				],
				"summary": "Withdraw",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					},
					"422": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.AmountRequest"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/transfers": {
			"post": {
				"tags": [
					"Transfers"
				],
				"summary": "Initiate transfer",
				"produces": [
					"application/json"
				],
				"responses": {
					"202": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					},
					"422": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.TransferRequest"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/transfers/qr": {
			"post": {
				"tags": [
					"Transfers"
				],
				"summary": "Initiate transfer from QR code",
				"produces": [
					"application/json"
				],
				"responses": {
					"202": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					},
					"422": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.QRTransferRequest"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/transfers/{transferId}/confirm": {
			"post": {
				"tags": [
					"Transfers"
				],
				"summary": "Confirm transfer",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					},
					"422": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "path",
						"name": "transferId",
						"required": true,
						"type": "string"
					}
				],
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/transfers/{transferId}": {
			"delete": {
				"tags": [
					"Transfers"
				],
				"summary": "Cancel transfer",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "path",
						"name": "transferId",
						"required": true,
						"type": "string"
					}
				],
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/loans": {
			"get": {
				"tags": [
					"Loans"
				],
				"summary": "List loans",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"post": {
				"tags": [
					"Loans"
				],
				"summary": "Apply for a loan",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.TermRequest"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/loans/{loanId}/payments": {
			"post": {
				"tags": [
					"Loans"
				],
				"summary": "Repay a loan",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					},
					"422": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "path",
						"name": "loanId",
						"required": true,
						"type": "string"
					},
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.AmountRequest"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/fixed-deposits": {
			"get": {
				"tags": [
					"FixedDeposits"
				],
				"summary": "List fixed deposits",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"post": {
				"tags": [
					"FixedDeposits"
				],
				"summary": "Open a fixed deposit",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					},
					"422": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.TermRequest"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/fixed-deposits/{fdId}/close": {
			"post": {
				"tags": [
					"FixedDeposits"
				],
				"summary": "Close a matured fixed deposit",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/services.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "path",
						"name": "fdId",
						"required": true,
						"type": "string"
					}
				],
				"consumes": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		}
	},
	"definitions": {
		"services.ErrorResponse": {
			"type": "object",
			"properties": {
				"success": {
					"type": "boolean"
				},
				"error": {
					"type": "string"
				},
				"details": {
					"type": "object"
				}
			}
		},
		"handlers.RegisterRequest": {
			"type": "object",
			"properties": {
				"username": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				},
				"confirmPassword": {
					"type": "string"
				},
				"initialDeposit": {
					"type": "integer"
				}
			},
			"required": [
				"username",
				"email",
				"password",
				"confirmPassword"
			]
		},
		"handlers.LoginRequest": {
			"type": "object",
			"properties": {
				"username": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			},
			"required": [
				"username",
				"password"
			]
		},
		"handlers.AmountRequest": {
			"type": "object",
			"properties": {
				"amount": {
					"type": "integer"
				}
			},
			"required": [
				"amount"
			]
		},
		"handlers.TransferRequest": {
			"type": "object",
			"properties": {
				"recipient": {
					"type": "string"
				},
				"recipientAccountId": {
					"type": "string"
				},
				"amount": {
					"type": "integer"
				},
				"description": {
					"type": "string"
				}
			},
			"required": [
				"recipient",
				"recipientAccountId",
				"amount"
			]
		},
		"handlers.QRTransferRequest": {
			"type": "object",
			"properties": {
				"qrCode": {
					"type": "string"
				},
				"amount": {
					"type": "integer"
				},
				"description": {
					"type": "string"
				}
			},
			"required": [
				"qrCode"
			]
		},
		"handlers.TermRequest": {
			"type": "object",
			"properties": {
				"amount": {
					"type": "integer"
				},
				"durationMonths": {
					"type": "integer",
					"maximum": 1200,
					"minimum": 1
				}
			},
			"required": [
				"amount",
				"durationMonths"
			]
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
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Personal Banking Ledger API",
	Description:      "Accounts, two-phase transfers, loans and fixed deposits",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
