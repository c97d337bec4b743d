package controllers

import (
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Tharoon321/go-events-api/models"
	"github.com/Tharoon321/go-events-api/publisher"
	"github.com/Tharoon321/go-events-api/store"
	"github.com/Tharoon321/go-events-api/utils"
)

const (
	msgRequired     = "eventName, date, location, and userId are required"
	msgDuplicate    = "Duplicate event for same user and date"
	msgNotFound     = "Event not found"
	msgForbidUpdate = "Unauthorized to update this event"
	msgForbidDelete = "Unauthorized to delete this event"
	msgInvalidBody  = "invalid request body"
	msgLoadFailed   = "failed to load events"
	msgSaveFailed   = "failed to save events"
)

// CreateEventInput is the request body for creating an event
type CreateEventInput struct {
	EventName   string   `json:"eventName" binding:"required"`
	Date        string   `json:"date" binding:"required"`
	Location    string   `json:"location" binding:"required"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	UserID      string   `json:"userId" binding:"required"`
}

// UpdateEventInput allows partial updates. Empty values leave the field as is.
type UpdateEventInput struct {
	Location    *string        `json:"location,omitempty"`
	Description *string        `json:"description,omitempty"`
	Tags        *[]string      `json:"tags,omitempty"`
	Date        *string        `json:"date,omitempty"`
	UserID      models.OwnerID `json:"userId"`
}

// DeleteEventInput identifies the caller of a delete.
type DeleteEventInput struct {
	UserID  models.OwnerID `json:"userId"`
	IsAdmin models.Truthy  `json:"isAdmin"`
}

// EventController serves the /api/events routes. Mutations run their whole
// load, modify and save sequence under mu; change notifications go out after
// mu is released.
type EventController struct {
	store     store.Store
	publisher publisher.Publisher
	logger    *zap.Logger
	now       func() time.Time

	mu sync.Mutex
}

func NewEventController(s store.Store, p publisher.Publisher, logger *zap.Logger) *EventController {
	if p == nil {
		p = publisher.Nop{}
	}
	return &EventController{
		store:     s,
		publisher: p,
		logger:    logger.Named("events"),
		now:       time.Now,
	}
}

// SetClock replaces the time source used for ids and timestamps.
func (ec *EventController) SetClock(now func() time.Time) {
	ec.now = now
}

// CreateEvent handles POST /api/events
func (ec *EventController) CreateEvent(c *gin.Context) {
	var input CreateEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) || errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgRequired})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
		return
	}

	event, ok := ec.create(c, input)
	if !ok {
		return
	}

	ec.logger.Info("event created", zap.Int64("id", event.ID), zap.String("userId", event.UserID))
	ec.notify(c, publisher.Created, event)
	c.JSON(http.StatusCreated, gin.H{"message": "Event created", "data": event})
}

func (ec *EventController) create(c *gin.Context, input CreateEventInput) (models.Event, bool) {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	events, ok := ec.load(c)
	if !ok {
		return models.Event{}, false
	}

	for _, e := range events {
		if e.SameSlot(input.EventName, input.Date, input.UserID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgDuplicate})
			return models.Event{}, false
		}
	}

	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}
	now := ec.now()
	event := models.Event{
		ID:          utils.NextEventID(now, events),
		EventName:   input.EventName,
		Date:        input.Date,
		Location:    input.Location,
		Description: input.Description,
		Tags:        tags,
		UserID:      input.UserID,
		CreatedAt:   utils.ISOTimestamp(now),
	}

	if !ec.save(c, append(events, event)) {
		return models.Event{}, false
	}
	return event, true
}

// ListEvents handles GET /api/events with optional date, location and tag
// filters and sort/order.
func (ec *EventController) ListEvents(c *gin.Context) {
	events, ok := ec.load(c)
	if !ok {
		return
	}

	date, location, tag := c.Query("date"), c.Query("location"), c.Query("tag")
	result := make([]models.Event, 0, len(events))
	for _, e := range events {
		if date != "" && e.Date != date {
			continue
		}
		if location != "" && e.Location != location {
			continue
		}
		if tag != "" && !e.HasTag(tag) {
			continue
		}
		result = append(result, e)
	}

	if key := sortKey(c.Query("sort")); key != nil {
		desc := c.Query("order") == "desc"
		sort.SliceStable(result, func(i, j int) bool {
			if desc {
				return utils.CompareUTF16(key(result[i]), key(result[j])) > 0
			}
			return utils.CompareUTF16(key(result[i]), key(result[j])) < 0
		})
	}

	c.JSON(http.StatusOK, result)
}

func sortKey(field string) func(models.Event) string {
	switch field {
	case "date":
		return func(e models.Event) string { return e.Date }
	case "eventName":
		return func(e models.Event) string { return e.EventName }
	}
	return nil
}

// GetEvent handles GET /api/events/:id
func (ec *EventController) GetEvent(c *gin.Context) {
	events, ok := ec.load(c)
	if !ok {
		return
	}
	idx := findEvent(events, c.Param("id"))
	if idx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
		return
	}
	c.JSON(http.StatusOK, events[idx])
}

// UpdateEvent handles PUT /api/events/:id; only the owner can update
func (ec *EventController) UpdateEvent(c *gin.Context) {
	var input UpdateEventInput
	if err := bindOptionalJSON(c, &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
		return
	}

	event, ok := ec.update(c, input)
	if !ok {
		return
	}

	ec.logger.Info("event updated", zap.Int64("id", event.ID))
	ec.notify(c, publisher.Updated, event)
	c.JSON(http.StatusOK, gin.H{"message": "Event updated", "data": event})
}

func (ec *EventController) update(c *gin.Context, input UpdateEventInput) (models.Event, bool) {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	events, ok := ec.load(c)
	if !ok {
		return models.Event{}, false
	}
	idx := findEvent(events, c.Param("id"))
	if idx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
		return models.Event{}, false
	}

	event := &events[idx]
	if !input.UserID.Owns(*event) {
		c.JSON(http.StatusForbidden, gin.H{"error": msgForbidUpdate})
		return models.Event{}, false
	}

	if input.Location != nil && *input.Location != "" {
		event.Location = *input.Location
	}
	if input.Description != nil && *input.Description != "" {
		event.Description = *input.Description
	}
	if input.Tags != nil && len(*input.Tags) > 0 {
		event.Tags = *input.Tags
	}
	if input.Date != nil && *input.Date != "" {
		event.Date = *input.Date
	}

	if !ec.save(c, events) {
		return models.Event{}, false
	}
	return *event, true
}

// DeleteEvent handles DELETE /api/events/:id; the owner or an admin can delete
func (ec *EventController) DeleteEvent(c *gin.Context) {
	var input DeleteEventInput
	if err := bindOptionalJSON(c, &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
		return
	}

	removed, ok := ec.remove(c, input)
	if !ok {
		return
	}

	ec.logger.Info("event deleted", zap.Int64("id", removed.ID), zap.Bool("admin", bool(input.IsAdmin)))
	ec.notify(c, publisher.Deleted, removed)
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}

func (ec *EventController) remove(c *gin.Context, input DeleteEventInput) (models.Event, bool) {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	events, ok := ec.load(c)
	if !ok {
		return models.Event{}, false
	}
	idx := findEvent(events, c.Param("id"))
	if idx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
		return models.Event{}, false
	}

	removed := events[idx]
	if !input.UserID.Owns(removed) && !bool(input.IsAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": msgForbidDelete})
		return models.Event{}, false
	}

	events = append(events[:idx], events[idx+1:]...)
	if !ec.save(c, events) {
		return models.Event{}, false
	}
	return removed, true
}

func (ec *EventController) load(c *gin.Context) ([]models.Event, bool) {
	events, err := ec.store.Load(c.Request.Context())
	if err != nil {
		ec.logger.Error("load events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgLoadFailed})
		return nil, false
	}
	return events, true
}

func (ec *EventController) save(c *gin.Context, events []models.Event) bool {
	if err := ec.store.Save(c.Request.Context(), events); err != nil {
		ec.logger.Error("save events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgSaveFailed})
		return false
	}
	return true
}

func (ec *EventController) notify(c *gin.Context, kind string, event models.Event) {
	change := publisher.Change{Type: kind, Event: event, At: utils.ISOTimestamp(ec.now())}
	if err := ec.publisher.Publish(c.Request.Context(), change); err != nil {
		ec.logger.Warn("publish change", zap.String("type", kind), zap.Int64("id", event.ID), zap.Error(err))
	}
}

// findEvent returns the index of the event whose id equals param, or -1.
func findEvent(events []models.Event, param string) int {
	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		return -1
	}
	for i, e := range events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// bindOptionalJSON decodes the body into obj; a missing body leaves obj zero.
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
