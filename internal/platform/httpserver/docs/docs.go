// Package docs holds the generated OpenAPI description served under /swagger/.
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
		"/v1/power/habits/{habit_id}/complete": {
			"post": {
				"description": "Awards points for a due habit once per calendar day.",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"power-engine"
				],
				"summary": "Complete a habit for a day",
				"parameters": [
					{
						"type": "string",
						"description": "Acting user id",
						"name": "X-User-Id",
						"in": "header",
						"required": true
					},
					{
						"type": "string",
						"description": "Habit id",
						"name": "habit_id",
						"in": "path",
						"required": true
					},
					{
						"description": "Optional day",
						"name": "request",
						"in": "body",
						"schema": {
							"$ref": "#/definitions/http.CompleteHabitRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/http.HabitCompletionResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"423": {
						"description": "Locked",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/power/tasks/{task_id}/complete": {
			"post": {
				"description": "Awards points for a one-off task completion.",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"power-engine"
				],
				"summary": "Complete a task",
				"parameters": [
					{
						"type": "string",
						"description": "Acting user id",
						"name": "X-User-Id",
						"in": "header",
						"required": true
					},
					{
						"type": "string",
						"description": "Task id",
						"name": "task_id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Completion id",
						"name": "Idempotency-Key",
						"in": "header"
					},
					{
						"description": "Optional day and completion id",
						"name": "request",
						"in": "body",
						"schema": {
							"$ref": "#/definitions/http.CompleteTaskRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/http.TaskCompletionResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"423": {
						"description": "Locked",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/power/off-days": {
			"post": {
				"description": "Declares a rest day that keeps the streak alive without awarding points.",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"power-engine"
				],
				"summary": "Mark an off-day",
				"parameters": [
					{
						"type": "string",
						"description": "Acting user id",
						"name": "X-User-Id",
						"in": "header",
						"required": true
					},
					{
						"description": "Day and reason",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/http.MarkOffDayRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/http.OffDayResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"423": {
						"description": "Locked",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/power/state": {
			"get": {
				"description": "Returns total power, tier progress, today's log and streaks.",
				"produces": [
					"application/json"
				],
				"tags": [
					"power-engine"
				],
				"summary": "Get power state",
				"parameters": [
					{
						"type": "string",
						"description": "Acting user id",
						"name": "X-User-Id",
						"in": "header",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/http.PowerStateResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/power/ladder": {
			"get": {
				"description": "Returns the ladder with unlock status for the caller when X-User-Id is present.",
				"produces": [
					"application/json"
				],
				"tags": [
					"power-engine"
				],
				"summary": "List transformation tiers",
				"parameters": [
					{
						"type": "string",
						"description": "Acting user id",
						"name": "X-User-Id",
						"in": "header",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/http.TierLadderResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/power/history": {
			"get": {
				"description": "Returns daily power snapshots for the last N days.",
				"produces": [
					"application/json"
				],
				"tags": [
					"power-engine"
				],
				"summary": "Get power history",
				"parameters": [
					{
						"type": "string",
						"description": "Acting user id",
						"name": "X-User-Id",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Days to include (default 30, max 365)",
						"name": "days",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/http.PowerHistoryResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/power/habits/{habit_id}/stats": {
			"get": {
				"description": "Returns streaks, totals and completion rates for one habit.",
				"produces": [
					"application/json"
				],
				"tags": [
					"power-engine"
				],
				"summary": "Get habit statistics",
				"parameters": [
					{
						"type": "string",
						"description": "Acting user id",
						"name": "X-User-Id",
						"in": "header",
						"required": true
					},
					{
						"type": "string",
						"description": "Habit id",
						"name": "habit_id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/http.HabitStatsResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/power/settings": {
			"put": {
				"description": "Sets the points a day needs to count toward the streak. Today's status and the streak are re-evaluated with the new value.",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"power-engine"
				],
				"summary": "Update the daily point minimum",
				"parameters": [
					{
						"type": "string",
						"description": "Acting user id",
						"name": "X-User-Id",
						"in": "header",
						"required": true
					},
					{
						"description": "New minimum",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/http.UpdateSettingsRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/http.SettingsResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"423": {
						"description": "Locked",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/power/analytics/weekly": {
			"get": {
				"description": "Returns points, completions and minimum status for the seven days ending today.",
				"produces": [
					"application/json"
				],
				"tags": [
					"power-engine"
				],
				"summary": "Get the weekly summary",
				"parameters": [
					{
						"type": "string",
						"description": "Acting user id",
						"name": "X-User-Id",
						"in": "header",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/http.WeeklySummaryResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/power/analytics/category-breakdown": {
			"get": {
				"description": "Returns habit and task points per category over the last N days with each category's share.",
				"produces": [
					"application/json"
				],
				"tags": [
					"power-engine"
				],
				"summary": "Get points per category",
				"parameters": [
					{
						"type": "string",
						"description": "Acting user id",
						"name": "X-User-Id",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Days to include (default 30, max 365)",
						"name": "days",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/http.CategoryBreakdownResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/power/habits/{habit_id}/calendar": {
			"get": {
				"description": "Returns the scheduled days of one habit in a month up to today.",
				"produces": [
					"application/json"
				],
				"tags": [
					"power-engine"
				],
				"summary": "Get a habit's monthly calendar",
				"parameters": [
					{
						"type": "string",
						"description": "Acting user id",
						"name": "X-User-Id",
						"in": "header",
						"required": true
					},
					{
						"type": "string",
						"description": "Habit id",
						"name": "habit_id",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Year",
						"name": "year",
						"in": "query",
						"required": true
					},
					{
						"type": "integer",
						"description": "Month (1-12)",
						"name": "month",
						"in": "query",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/http.HabitCalendarResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/power/habits/calendar": {
			"get": {
				"description": "Returns due and completed habit counts per day of a month up to today.",
				"produces": [
					"application/json"
				],
				"tags": [
					"power-engine"
				],
				"summary": "Get the all-habits monthly calendar",
				"parameters": [
					{
						"type": "string",
						"description": "Acting user id",
						"name": "X-User-Id",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Year",
						"name": "year",
						"in": "query",
						"required": true
					},
					{
						"type": "integer",
						"description": "Month (1-12)",
						"name": "month",
						"in": "query",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/http.MonthCalendarResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/power/admin/users/{user_id}/verify": {
			"post": {
				"description": "Recomputes ledger invariants for a user and halts writes when they are violated.",
				"produces": [
					"application/json"
				],
				"tags": [
					"power-engine"
				],
				"summary": "Verify a user ledger",
				"parameters": [
					{
						"type": "string",
						"description": "User id",
						"name": "user_id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/http.LedgerReportResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/http.ErrorResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"http.UpdateSettingsRequest": {
			"type": "object",
			"properties": {
				"daily_point_minimum": {
					"type": "integer"
				}
			}
		},
		"http.SettingsResponse": {
			"type": "object",
			"properties": {
				"daily_point_minimum": {
					"type": "integer"
				},
				"result": {
					"$ref": "#/definitions/http.CommitResultDTO"
				}
			}
		},
		"http.WeeklyDayDTO": {
			"type": "object",
			"properties": {
				"date": {
					"type": "string"
				},
				"habits_completed": {
					"type": "integer"
				},
				"is_off_day": {
					"type": "boolean"
				},
				"minimum_met": {
					"type": "boolean"
				},
				"points": {
					"type": "integer"
				},
				"tasks_completed": {
					"type": "integer"
				}
			}
		},
		"http.WeeklySummaryResponse": {
			"type": "object",
			"properties": {
				"average_daily": {
					"type": "number"
				},
				"days": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/http.WeeklyDayDTO"
					}
				},
				"days_minimum_met": {
					"type": "integer"
				},
				"off_days": {
					"type": "integer"
				},
				"total_points": {
					"type": "integer"
				}
			}
		},
		"http.CategoryShareDTO": {
			"type": "object",
			"properties": {
				"category_id": {
					"type": "string"
				},
				"habit_completions": {
					"type": "integer"
				},
				"habit_points": {
					"type": "integer"
				},
				"kind": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"percentage": {
					"type": "number"
				},
				"task_completions": {
					"type": "integer"
				},
				"task_points": {
					"type": "integer"
				},
				"total_points": {
					"type": "integer"
				}
			}
		},
		"http.CategoryBreakdownResponse": {
			"type": "object",
			"properties": {
				"items": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/http.CategoryShareDTO"
					}
				}
			}
		},
		"http.HabitCalendarDayDTO": {
			"type": "object",
			"properties": {
				"completed": {
					"type": "boolean"
				},
				"date": {
					"type": "string"
				},
				"is_off_day": {
					"type": "boolean"
				},
				"points_awarded": {
					"type": "integer"
				}
			}
		},
		"http.HabitCalendarResponse": {
			"type": "object",
			"properties": {
				"completion_rate": {
					"type": "number"
				},
				"days": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/http.HabitCalendarDayDTO"
					}
				},
				"habit_id": {
					"type": "string"
				},
				"habit_name": {
					"type": "string"
				},
				"month": {
					"type": "integer"
				},
				"year": {
					"type": "integer"
				}
			}
		},
		"http.CalendarDayDTO": {
			"type": "object",
			"properties": {
				"completion_rate": {
					"type": "number"
				},
				"date": {
					"type": "string"
				},
				"habit_points": {
					"type": "integer"
				},
				"habits_completed": {
					"type": "integer"
				},
				"habits_due": {
					"type": "integer"
				}
			}
		},
		"http.MonthCalendarResponse": {
			"type": "object",
			"properties": {
				"days": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/http.CalendarDayDTO"
					}
				},
				"month": {
					"type": "integer"
				},
				"year": {
					"type": "integer"
				}
			}
		},
		"http.ErrorResponse": {
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
		"http.CompleteHabitRequest": {
			"type": "object",
			"properties": {
				"date": {
					"type": "string"
				}
			}
		},
		"http.CompleteTaskRequest": {
			"type": "object",
			"properties": {
				"completion_id": {
					"type": "string"
				},
				"date": {
					"type": "string"
				}
			}
		},
		"http.MarkOffDayRequest": {
			"type": "object",
			"properties": {
				"date": {
					"type": "string"
				},
				"reason": {
					"type": "string"
				}
			}
		},
		"http.PointBreakdownDTO": {
			"type": "object",
			"properties": {
				"awarded": {
					"type": "integer"
				},
				"base_points": {
					"type": "integer"
				},
				"category_multiplier": {
					"type": "number"
				},
				"consistency_pending": {
					"type": "boolean"
				},
				"effective_points": {
					"type": "integer"
				},
				"streak_bonus_pct": {
					"type": "number"
				},
				"streak_bonus_points": {
					"type": "integer"
				},
				"streak_days": {
					"type": "integer"
				}
			}
		},
		"http.TransformationDTO": {
			"type": "object",
			"properties": {
				"new_tier": {
					"type": "string"
				},
				"new_tier_name": {
					"type": "string"
				},
				"new_total_points": {
					"type": "integer"
				}
			}
		},
		"http.CommitResultDTO": {
			"type": "object",
			"properties": {
				"all_habits_completed": {
					"type": "boolean"
				},
				"best_streak": {
					"type": "integer"
				},
				"breakdown": {
					"$ref": "#/definitions/http.PointBreakdownDTO"
				},
				"committed_at": {
					"type": "string"
				},
				"current_streak": {
					"type": "integer"
				},
				"daily_minimum_met": {
					"type": "boolean"
				},
				"daily_points_today": {
					"type": "integer"
				},
				"date": {
					"type": "string"
				},
				"habit_streak": {
					"type": "integer"
				},
				"kind": {
					"type": "string"
				},
				"new_total_power": {
					"type": "integer"
				},
				"new_transformation": {
					"$ref": "#/definitions/http.TransformationDTO"
				},
				"points_awarded": {
					"type": "integer"
				}
			}
		},
		"http.HabitCompletionResponse": {
			"type": "object",
			"properties": {
				"consistency_bonus": {
					"$ref": "#/definitions/http.CommitResultDTO"
				},
				"replayed": {
					"type": "boolean"
				},
				"result": {
					"$ref": "#/definitions/http.CommitResultDTO"
				}
			}
		},
		"http.TaskCompletionResponse": {
			"type": "object",
			"properties": {
				"completion_id": {
					"type": "string"
				},
				"replayed": {
					"type": "boolean"
				},
				"result": {
					"$ref": "#/definitions/http.CommitResultDTO"
				}
			}
		},
		"http.OffDayResponse": {
			"type": "object",
			"properties": {
				"date": {
					"type": "string"
				},
				"reason": {
					"type": "string"
				},
				"replayed": {
					"type": "boolean"
				},
				"result": {
					"$ref": "#/definitions/http.CommitResultDTO"
				}
			}
		},
		"http.TierDTO": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"points_required": {
					"type": "integer"
				},
				"tier_id": {
					"type": "string"
				}
			}
		},
		"http.PowerStateResponse": {
			"type": "object",
			"properties": {
				"best_streak": {
					"type": "integer"
				},
				"consistency_bonus_applied": {
					"type": "boolean"
				},
				"current_streak": {
					"type": "integer"
				},
				"daily_minimum": {
					"type": "integer"
				},
				"daily_minimum_met": {
					"type": "boolean"
				},
				"daily_points_today": {
					"type": "integer"
				},
				"habits_completed_today": {
					"type": "integer"
				},
				"habits_due_today": {
					"type": "integer"
				},
				"is_off_day_today": {
					"type": "boolean"
				},
				"last_activity_date": {
					"type": "string"
				},
				"next_tier": {
					"$ref": "#/definitions/http.TierDTO"
				},
				"points_to_next": {
					"type": "integer"
				},
				"progress_percentage": {
					"type": "number"
				},
				"tier": {
					"$ref": "#/definitions/http.TierDTO"
				},
				"total_power_points": {
					"type": "integer"
				},
				"user_id": {
					"type": "string"
				}
			}
		},
		"http.TierLadderEntryDTO": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"points_required": {
					"type": "integer"
				},
				"tier_id": {
					"type": "string"
				},
				"unlocked": {
					"type": "boolean"
				},
				"unlocked_at": {
					"type": "string"
				}
			}
		},
		"http.TierLadderResponse": {
			"type": "object",
			"properties": {
				"items": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/http.TierLadderEntryDTO"
					}
				}
			}
		},
		"http.PowerHistoryPointDTO": {
			"type": "object",
			"properties": {
				"date": {
					"type": "string"
				},
				"tier": {
					"type": "string"
				},
				"total_power_points": {
					"type": "integer"
				}
			}
		},
		"http.PowerHistoryResponse": {
			"type": "object",
			"properties": {
				"items": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/http.PowerHistoryPointDTO"
					}
				}
			}
		},
		"http.HabitStatsResponse": {
			"type": "object",
			"properties": {
				"best_streak": {
					"type": "integer"
				},
				"completion_rate_30d": {
					"type": "number"
				},
				"completion_rate_7d": {
					"type": "number"
				},
				"completion_rate_90d": {
					"type": "number"
				},
				"current_streak": {
					"type": "integer"
				},
				"habit_id": {
					"type": "string"
				},
				"total_completions": {
					"type": "integer"
				},
				"total_points": {
					"type": "integer"
				}
			}
		},
		"http.LedgerReportResponse": {
			"type": "object",
			"properties": {
				"consistent": {
					"type": "boolean"
				},
				"days_checked": {
					"type": "integer"
				},
				"halted": {
					"type": "boolean"
				},
				"issues": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"sum_of_daily_points": {
					"type": "integer"
				},
				"total_power_points": {
					"type": "integer"
				},
				"user_id": {
					"type": "string"
				}
			}
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Powertrack Power Engine API",
	Description:      "Habit and task completions turned into power points, streaks and transformation tiers.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
