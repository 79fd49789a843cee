package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"styledecor/db"
	"styledecor/logger"
	"styledecor/models"
	"styledecor/notify"
	"styledecor/users"
	"styledecor/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

// Handlers holds the ledger's collaborators.
type Handlers struct {
	Hub *notify.Hub
}

func NewHandlers(hub *notify.Hub) *Handlers {
	return &Handlers{Hub: hub}
}

// CreateBooking inserts a new booking for a catalog package. Price and
// service name are resolved server-side so the client cannot set them.
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var payload struct {
		CustomerEmail string `json:"customerEmail"`
		CustomerName  string `json:"customerName"`
		ServiceID     string `json:"serviceId"`
		BookingDate   string `json:"bookingDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	payload.CustomerEmail = strings.ToLower(payload.CustomerEmail)
	if payload.CustomerEmail == "" || payload.ServiceID == "" || payload.BookingDate == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "customerEmail, serviceId and bookingDate are required")
		return
	}
	if !users.EnsureOwnership(w, r, payload.CustomerEmail) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	var service models.ServicePackage
	if err := db.ServicesCollection.FindOne(ctx, bson.M{"serviceId": payload.ServiceID}).Decode(&service); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "service not found")
		return
	}

	now := time.Now()
	booking := models.Booking{
		BookingID:     utils.GetUUID(),
		CustomerEmail: payload.CustomerEmail,
		CustomerName:  payload.CustomerName,
		ServiceID:     service.ServiceID,
		ServiceName:   service.Name,
		Price:         service.Price,
		BookingDate:   payload.BookingDate,
		ServiceStatus: models.StatusRequested,
		PaymentStatus: models.PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := db.BookingsCollection.InsertOne(ctx, booking); err != nil {
		logger.L.Errorw("booking insert failed", "bookingId", booking.BookingID, "err", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	h.Hub.Publish(notify.Event{
		Action:    "created",
		BookingID: booking.BookingID,
		Status:    string(booking.ServiceStatus),
	}, booking.CustomerEmail)

	utils.RespondWithJSON(w, http.StatusCreated, booking)
}

// ListBookings lists bookings filtered by customer or decorator email.
// Sorted by booking date descending when sort=desc is requested.
func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email := strings.ToLower(r.URL.Query().Get("email"))
	decoratorEmail := strings.ToLower(r.URL.Query().Get("decoratorEmail"))

	filter := bson.M{}
	switch {
	case email != "":
		if !users.EnsureOwnership(w, r, email) {
			return
		}
		filter["customerEmail"] = email
	case decoratorEmail != "":
		if !users.EnsureOwnership(w, r, decoratorEmail) {
			return
		}
		filter["decoratorEmail"] = decoratorEmail
	default:
		// unscoped listing is for staff only
		if !users.EnsureOwnership(w, r, "") {
			return
		}
	}

	findOpts := options.Find()
	if r.URL.Query().Get("sort") == "desc" {
		findOpts.SetSort(bson.M{"bookingDate": -1})
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	cur, err := db.BookingsCollection.Find(ctx, filter, findOpts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var bookings []models.Booking
	if err := cur.All(ctx, &bookings); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	utils.RespondWithJSON(w, http.StatusOK, bookings)
}

// PaidBookings filters the ledger by paymentStatus.
func (h *Handlers) PaidBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = string(models.PaymentPaid)
	}
	if status != string(models.PaymentPaid) && status != string(models.PaymentUnpaid) {
		utils.RespondWithError(w, http.StatusBadRequest, "unknown payment status")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	cur, err := db.BookingsCollection.Find(ctx, bson.M{"paymentStatus": status})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var bookings []models.Booking
	if err := cur.All(ctx, &bookings); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	utils.RespondWithJSON(w, http.StatusOK, bookings)
}

// AssignDecorator binds an available decorator to a booking. The booking
// update and the decorator's availability flip commit as one transaction.
func (h *Handlers) AssignDecorator(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingID := ps.ByName("id")
	if bookingID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "missing id")
		return
	}

	var payload struct {
		DecoratorEmail string `json:"decoratorEmail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.DecoratorEmail == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "decoratorEmail is required")
		return
	}
	payload.DecoratorEmail = strings.ToLower(payload.DecoratorEmail)

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	var decorator models.User
	err := db.UserCollection.FindOne(ctx, bson.M{
		"email": payload.DecoratorEmail,
		"role":  models.RoleDecorator,
	}).Decode(&decorator)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "decorator not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	var updated models.Booking
	err = db.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		res := db.BookingsCollection.FindOneAndUpdate(sc,
			bson.M{"bookingId": bookingID},
			bson.M{"$set": bson.M{
				"decoratorEmail": decorator.Email,
				"decoratorName":  decorator.Name,
				"serviceStatus":  models.StatusDecoratorAssigned,
				"updatedAt":      time.Now(),
			}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		)
		if err := res.Decode(&updated); err != nil {
			return err
		}

		_, err := db.UserCollection.UpdateOne(sc,
			bson.M{"email": decorator.Email},
			bson.M{"$set": bson.M{
				"status":    models.AvailabilityAssigned,
				"updatedAt": time.Now(),
			}},
		)
		return err
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithError(w, http.StatusNotFound, "booking not found")
		return
	}
	if err != nil {
		logger.L.Errorw("assignment failed", "bookingId", bookingID, "decorator", decorator.Email, "err", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "assignment failed")
		return
	}

	logger.L.Infow("decorator assigned", "bookingId", bookingID, "decorator", decorator.Email)
	h.Hub.Publish(notify.Event{
		Action:    "assigned",
		BookingID: bookingID,
		Status:    string(models.StatusDecoratorAssigned),
	}, updated.CustomerEmail, decorator.Email)

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// UpdateBookingStatus moves a booking to a new lifecycle state. Transitions
// outside the allow-list are rejected.
func (h *Handlers) UpdateBookingStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingID := ps.ByName("id")
	if bookingID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "missing id")
		return
	}

	var payload struct {
		ServiceStatus models.ServiceStatus `json:"serviceStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !models.ValidStatus(payload.ServiceStatus) {
		utils.RespondWithError(w, http.StatusBadRequest, "unknown status")
		return
	}
	sources := models.TransitionSources(payload.ServiceStatus)
	if len(sources) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "illegal status transition")
		return
	}

	// The legal from-states go into the filter so two concurrent updates
	// cannot both pass a read-then-write check. nil and "" stand in for
	// Requested on records written before the field was stamped.
	allowedFrom := bson.A{}
	for _, s := range sources {
		allowedFrom = append(allowedFrom, s)
		if s == models.StatusRequested {
			allowedFrom = append(allowedFrom, nil, "")
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	res := db.BookingsCollection.FindOneAndUpdate(ctx,
		bson.M{
			"bookingId":     bookingID,
			"serviceStatus": bson.M{"$in": allowedFrom},
		},
		bson.M{"$set": bson.M{
			"serviceStatus": payload.ServiceStatus,
			"updatedAt":     time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var updated models.Booking
	if err := res.Decode(&updated); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			utils.RespondWithError(w, http.StatusInternalServerError, "db error")
			return
		}
		if ferr := db.BookingsCollection.FindOne(ctx, bson.M{"bookingId": bookingID}).Err(); errors.Is(ferr, mongo.ErrNoDocuments) {
			utils.RespondWithError(w, http.StatusNotFound, "booking not found")
			return
		}
		utils.RespondWithError(w, http.StatusBadRequest, "illegal status transition")
		return
	}

	h.Hub.Publish(notify.Event{
		Action:    "status",
		BookingID: bookingID,
		Status:    string(updated.ServiceStatus),
	}, updated.CustomerEmail, updated.DecoratorEmail)

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// CancelBooking hard-deletes a booking. An assigned decorator's availability
// is left untouched; whether cancellation should release them is an open
// product question, so the inconsistency is logged rather than papered over.
func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingID := ps.ByName("id")
	if bookingID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "missing id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	var booking models.Booking
	if err := db.BookingsCollection.FindOne(ctx, bson.M{"bookingId": bookingID}).Decode(&booking); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "booking not found")
		return
	}
	if !users.EnsureOwnership(w, r, booking.CustomerEmail) {
		return
	}

	if _, err := db.BookingsCollection.DeleteOne(ctx, bson.M{"bookingId": bookingID}); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	if booking.DecoratorEmail != "" {
		logger.L.Warnw("cancelled booking had an assigned decorator; availability not restored",
			"bookingId", bookingID, "decorator", booking.DecoratorEmail)
	}

	h.Hub.Publish(notify.Event{
		Action:    "cancelled",
		BookingID: bookingID,
	}, booking.CustomerEmail, booking.DecoratorEmail)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Booking cancelled"})
}
