package upload

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"backend-trailforge/internal/progress"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/upload", func(c *fiber.Ctx) error {
		fh, err := c.FormFile("gpxFile")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "No file uploaded")
		}
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".gpx") {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid file type. Only GPX files are allowed.")
		}

		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		userID := c.FormValue("userId")
		if userID == "" {
			userID = "anonymous"
		}

		uploadID := svc.ProcessUpload(data, fh.Filename, userID)
		return c.JSON(fiber.Map{
			"uploadId": uploadID,
			"message":  "File uploaded successfully",
			"filename": fh.Filename,
		})
	})

	r.Get("/progress/:uploadId", func(c *fiber.Ctx) error {
		job, ok := svc.Job(c.Params("uploadId"))
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Upload not found"})
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")

		tracker := job.Tracker
		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			// Catch-up: the latest snapshot goes out before any live
			// events, so late subscribers see current state at once.
			snap := tracker.Snapshot()
			if err := writeEvent(w, snap); err != nil {
				return
			}
			if snap.Terminal() {
				return
			}

			sub := tracker.Subscribe()
			defer sub.Unsubscribe()

			wroteTerminal := false
			for upd := range sub.C {
				if err := writeEvent(w, upd); err != nil {
					// Client went away; detach without touching the
					// pipeline.
					return
				}
				if upd.Terminal() {
					wroteTerminal = true
				}
			}

			// The channel closes on terminal; a dropped frame must not
			// hide the terminal snapshot.
			if !wroteTerminal {
				_ = writeEvent(w, tracker.Snapshot())
			}
		}))
		return nil
	})

	r.Get("/status/:uploadId", func(c *fiber.Ctx) error {
		return c.JSON(svc.Status(c.Context(), c.Params("uploadId")))
	})
}

func writeEvent(w *bufio.Writer, upd progress.Update) error {
	payload, err := json.Marshal(upd)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}
