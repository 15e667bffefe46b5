package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/handiism/epic-downloader/internal/store"
)

var validate = validator.New()

// NewApp creates the status server with centralized JSON errors.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               "epic-downloader",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, runs *store.MemoryStore) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "epic-downloader",
			"runs":    runs.Len(),
		})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/runs/latest", func(c *fiber.Ctx) error {
		record, err := runs.Latest()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no run recorded yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read runs")
		}
		return c.JSON(record)
	})

	v1.Get("/runs", func(c *fiber.Ctx) error {
		var q listQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records := runs.List(q.Limit)
		return c.JSON(fiber.Map{
			"count": len(records),
			"runs":  records,
		})
	})

	v1.Get("/runs/:id", func(c *fiber.Ctx) error {
		record, err := runs.Get(c.Params("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "run not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read runs")
		}
		return c.JSON(record)
	})
}

// listQuery holds query parameters for the run listing.
type listQuery struct {
	Limit int `validate:"min=1,max=500"`
}

func (q *listQuery) bind(c *fiber.Ctx) error {
	raw := c.Query("limit")
	if raw == "" {
		q.Limit = 20
		return nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil {
		return errors.New("limit must be an integer")
	}
	q.Limit = limit
	return nil
}
