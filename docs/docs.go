// Package docs holds the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go --parseDependency
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {
			"name": "API Support",
			"email": "support@sitetrack.local"
		},
		"license": {
			"name": "MIT",
			"url": "https://opensource.org/licenses/MIT"
		},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/auth/me": {
			"get": {
				"tags": [
					"Auth"
				],
				"summary": "Get current authenticated user",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/orders": {
			"get": {
				"tags": [
					"Orders"
				],
				"summary": "List orders",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			},
			"post": {
				"tags": [
					"Orders"
				],
				"summary": "Create an order",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/domain.CreateOrderRequest"
						}
					}
				]
			}
		},
		"/orders/{id}": {
			"get": {
				"tags": [
					"Orders"
				],
				"summary": "Get an order",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/orders/{id}/approve": {
			"post": {
				"tags": [
					"Orders"
				],
				"summary": "Approve an order",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/orders/{id}/reject": {
			"post": {
				"tags": [
					"Orders"
				],
				"summary": "Reject an order",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/orders/{id}/cancel": {
			"post": {
				"tags": [
					"Orders"
				],
				"summary": "Cancel an order",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/orders/{id}/complete": {
			"post": {
				"tags": [
					"Orders"
				],
				"summary": "Complete an order",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/orders/{id}/delivery-state": {
			"get": {
				"tags": [
					"Deliveries"
				],
				"summary": "Delivered, remaining and completion of an order",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/orders/{id}/deliveries": {
			"get": {
				"tags": [
					"Deliveries"
				],
				"summary": "List the staged deliveries of an order",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			},
			"post": {
				"tags": [
					"Deliveries"
				],
				"summary": "Record a staged delivery with photo evidence",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "quantity",
						"in": "formData",
						"required": true
					},
					{
						"type": "file",
						"name": "photos",
						"in": "formData",
						"required": true
					},
					{
						"type": "boolean",
						"name": "qualityCheck",
						"in": "formData",
						"required": false
					},
					{
						"type": "string",
						"name": "damageNotes",
						"in": "formData",
						"required": false
					},
					{
						"type": "string",
						"name": "notes",
						"in": "formData",
						"required": false
					},
					{
						"type": "string",
						"name": "deliveredAt",
						"in": "formData",
						"required": false
					}
				],
				"consumes": [
					"multipart/form-data"
				]
			}
		},
		"/purchase-requests/{id}/delivery-summary": {
			"get": {
				"tags": [
					"Deliveries"
				],
				"summary": "Per-material delivery status of a purchase request",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/warehouses": {
			"get": {
				"tags": [
					"Warehouses"
				],
				"summary": "List warehouses",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			},
			"post": {
				"tags": [
					"Warehouses"
				],
				"summary": "Create a warehouse",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/domain.CreateWarehouseRequest"
						}
					}
				]
			}
		},
		"/warehouses/{id}": {
			"get": {
				"tags": [
					"Warehouses"
				],
				"summary": "Get a warehouse",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/stock": {
			"get": {
				"tags": [
					"Stock"
				],
				"summary": "List stock cells",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/stock/{productId}/{warehouseId}": {
			"get": {
				"tags": [
					"Stock"
				],
				"summary": "Get the stock of one product in one warehouse",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "productId",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "warehouseId",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/stock/movements": {
			"get": {
				"tags": [
					"Stock"
				],
				"summary": "List stock movements",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			},
			"post": {
				"tags": [
					"Stock"
				],
				"summary": "Record a stock entry or exit",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "productId",
						"in": "formData",
						"required": true
					},
					{
						"type": "string",
						"name": "warehouseId",
						"in": "formData",
						"required": true
					},
					{
						"type": "string",
						"name": "movementType",
						"in": "formData",
						"required": true
					},
					{
						"type": "string",
						"name": "quantity",
						"in": "formData",
						"required": true
					},
					{
						"type": "file",
						"name": "invoices",
						"in": "formData",
						"required": false
					}
				],
				"consumes": [
					"multipart/form-data"
				]
			}
		},
		"/stock/transfers": {
			"post": {
				"tags": [
					"Stock"
				],
				"summary": "Transfer stock between warehouses",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/domain.TransferStockRequest"
						}
					}
				]
			}
		},
		"/stock/adjustments": {
			"post": {
				"tags": [
					"Stock"
				],
				"summary": "Set a stock cell to a counted quantity",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/domain.AdjustStockRequest"
						}
					}
				]
			}
		},
		"/stock/levels": {
			"put": {
				"tags": [
					"Stock"
				],
				"summary": "Set minimum and maximum stock levels of a cell",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/domain.SetStockLevelsRequest"
						}
					}
				]
			}
		},
		"/stock/anomalies": {
			"get": {
				"tags": [
					"Stock"
				],
				"summary": "List transfer anomalies",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/stock/anomalies/{id}/resolve": {
			"post": {
				"tags": [
					"Stock"
				],
				"summary": "Mark a transfer anomaly as resolved",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/domain.ResolveAnomalyRequest"
						}
					}
				]
			}
		},
		"/users/{userId}/inventory": {
			"get": {
				"tags": [
					"Inventory"
				],
				"summary": "List the custody inventory of a user",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "userId",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/inventory/assignments": {
			"post": {
				"tags": [
					"Inventory"
				],
				"summary": "Check an item out to a user",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/domain.AssignInventoryRequest"
						}
					}
				]
			}
		},
		"/inventory/{id}": {
			"get": {
				"tags": [
					"Inventory"
				],
				"summary": "Get an inventory item",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/inventory/{id}/consume": {
			"post": {
				"tags": [
					"Inventory"
				],
				"summary": "Record consumption of a custody item",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/domain.ConsumeInventoryRequest"
						}
					}
				]
			}
		},
		"/inventory/{id}/status": {
			"post": {
				"tags": [
					"Inventory"
				],
				"summary": "Mark an active item as returned, lost or damaged",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/domain.ChangeInventoryStatusRequest"
						}
					}
				]
			}
		},
		"/inventory/{id}/consumptions": {
			"get": {
				"tags": [
					"Inventory"
				],
				"summary": "List the consumption history of an item",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/reports/products/{id}/locations": {
			"get": {
				"tags": [
					"Reports"
				],
				"summary": "Where a product is: warehouses, custody holders and consumed",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/reports/stock/export": {
			"get": {
				"tags": [
					"Reports"
				],
				"summary": "Export stock cells as a spreadsheet",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/evidence/{path}": {
			"get": {
				"tags": [
					"Evidence"
				],
				"summary": "Download an evidence file",
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "path",
						"in": "path",
						"required": true
					}
				]
			}
		}
	},
	"definitions": {
		"domain.CreateOrderRequest": {
			"type": "object",
			"properties": {
				"purchaseRequestId": {
					"type": "string"
				},
				"materialItemId": {
					"type": "string"
				},
				"materialName": {
					"type": "string"
				},
				"supplierId": {
					"type": "string"
				},
				"supplierName": {
					"type": "string"
				},
				"quantity": {
					"type": "string"
				},
				"unit": {
					"type": "string"
				},
				"amount": {
					"type": "string"
				},
				"currency": {
					"type": "string"
				},
				"deliveryDate": {
					"type": "string"
				}
			},
			"required": [
				"purchaseRequestId",
				"materialItemId",
				"supplierId"
			]
		},
		"domain.CreateWarehouseRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"code": {
					"type": "string"
				},
				"type": {
					"type": "string"
				},
				"location": {
					"type": "string"
				},
				"ownerId": {
					"type": "string"
				}
			},
			"required": [
				"name",
				"code",
				"type"
			]
		},
		"domain.TransferStockRequest": {
			"type": "object",
			"properties": {
				"productId": {
					"type": "string"
				},
				"fromWarehouseId": {
					"type": "string"
				},
				"toWarehouseId": {
					"type": "string"
				},
				"quantity": {
					"type": "string"
				},
				"condition": {
					"type": "string"
				},
				"assignedTo": {
					"type": "string"
				},
				"assignedFrom": {
					"type": "string"
				},
				"reason": {
					"type": "string"
				}
			},
			"required": [
				"productId",
				"fromWarehouseId",
				"toWarehouseId"
			]
		},
		"domain.AdjustStockRequest": {
			"type": "object",
			"properties": {
				"productId": {
					"type": "string"
				},
				"warehouseId": {
					"type": "string"
				},
				"newQuantity": {
					"type": "string"
				},
				"reason": {
					"type": "string"
				}
			},
			"required": [
				"productId",
				"warehouseId",
				"reason"
			]
		},
		"domain.SetStockLevelsRequest": {
			"type": "object",
			"properties": {
				"productId": {
					"type": "string"
				},
				"warehouseId": {
					"type": "string"
				},
				"minStockLevel": {
					"type": "string"
				},
				"maxStockLevel": {
					"type": "string"
				}
			},
			"required": [
				"productId",
				"warehouseId"
			]
		},
		"domain.ResolveAnomalyRequest": {
			"type": "object",
			"properties": {
				"note": {
					"type": "string"
				}
			},
			"required": [
				"note"
			]
		},
		"domain.AssignInventoryRequest": {
			"type": "object",
			"properties": {
				"userId": {
					"type": "string"
				},
				"productId": {
					"type": "string"
				},
				"itemName": {
					"type": "string"
				},
				"fromWarehouseId": {
					"type": "string"
				},
				"quantity": {
					"type": "string"
				},
				"unit": {
					"type": "string"
				},
				"category": {
					"type": "string"
				},
				"condition": {
					"type": "string"
				},
				"notes": {
					"type": "string"
				}
			},
			"required": [
				"userId",
				"itemName",
				"category"
			]
		},
		"domain.ConsumeInventoryRequest": {
			"type": "object",
			"properties": {
				"quantity": {
					"type": "string"
				},
				"note": {
					"type": "string"
				}
			}
		},
		"domain.ChangeInventoryStatusRequest": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string"
				}
			},
			"required": [
				"status"
			]
		}
	},
	"securityDefinitions": {
		"ApiKeyAuth": {
			"description": "API Key for system operations",
			"type": "apiKey",
			"name": "x-api-key",
			"in": "header"
		},
		"BearerAuth": {
			"description": "JWT Bearer token",
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
	Schemes:          []string{},
	Title:            "Site Procurement API",
	Description:      "Staged delivery reconciliation, stock ledger and custody inventory for construction sites",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
