package settlement

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"styledecor/checkout"
	"styledecor/db"
	"styledecor/models"
	"styledecor/notify"
	"styledecor/rdx"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

type fakeProcessor struct {
	session *checkout.Session
	err     error
}

func (f *fakeProcessor) CreateSession(_ context.Context, _ checkout.SessionParams) (*checkout.Session, error) {
	return f.session, f.err
}

func (f *fakeProcessor) GetSession(_ context.Context, _ string) (*checkout.Session, error) {
	return f.session, f.err
}

func paidSession() *checkout.Session {
	return &checkout.Session{
		ID:            "cs_1",
		TransactionID: "txn_1",
		AmountTotal:   250,
		Currency:      "usd",
		PaymentStatus: "paid",
		Metadata:      map[string]string{"bookingId": "b1"},
	}
}

func expectReconcileLock(t *testing.T) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	rdx.Conn = client
	mock.ExpectSetNX("settlement_lock:cs_1", "1", reconcileLockTTL).SetVal(true)
	mock.ExpectDel("settlement_lock:cs_1").SetVal(1)
}

func reconcileRequest() *http.Request {
	return httptest.NewRequest(http.MethodPatch, "/payment-success?session_id=cs_1", nil)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestReconcile(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	bookingDoc := bson.D{
		{Key: "bookingId", Value: "b1"},
		{Key: "customerEmail", Value: "a@x.com"},
		{Key: "serviceId", Value: "s1"},
		{Key: "serviceName", Value: "Wedding Decoration"},
		{Key: "price", Value: 250.0},
	}

	mt.Run("first reconcile records a payment and issues a tracking id", func(mt *mtest.T) {
		db.PaymentsCollection = mt.Coll
		db.BookingsCollection = mt.Coll
		expectReconcileLock(mt.T)

		hub := notify.NewHub()
		go hub.Run()
		defer hub.Stop()
		h := NewHandlers(&fakeProcessor{session: paidSession()}, hub, "http://site")

		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),             // no prior payment
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bookingDoc), // booking lookup
			mtest.CreateSuccessResponse(),                                   // payment insert
			mtest.CreateSuccessResponse(),                                   // booking stamp
		)

		rec := httptest.NewRecorder()
		h.Reconcile(rec, reconcileRequest(), nil)

		require.Equal(mt.T, http.StatusOK, rec.Code, rec.Body.String())
		body := decodeBody(mt.T, rec)
		assert.Equal(mt.T, true, body["success"])
		assert.Equal(mt.T, "txn_1", body["transactionId"])
		assert.Regexp(mt.T, trackingPattern, body["trackingId"])
	})

	mt.Run("repeat reconcile returns the recorded tracking id", func(mt *mtest.T) {
		db.PaymentsCollection = mt.Coll
		db.BookingsCollection = mt.Coll
		expectReconcileLock(mt.T)

		h := NewHandlers(&fakeProcessor{session: paidSession()}, notify.NewHub(), "http://site")

		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
				{Key: "transactionId", Value: "txn_1"},
				{Key: "trackingId", Value: "SD-AAAAAA"},
				{Key: "bookingId", Value: "b1"},
			}),
			mtest.CreateSuccessResponse(), // idempotent booking stamp
		)

		rec := httptest.NewRecorder()
		h.Reconcile(rec, reconcileRequest(), nil)

		require.Equal(mt.T, http.StatusOK, rec.Code, rec.Body.String())
		body := decodeBody(mt.T, rec)
		assert.Equal(mt.T, true, body["success"])
		assert.Equal(mt.T, "SD-AAAAAA", body["trackingId"])
	})

	mt.Run("racing insert loses to the unique index and adopts the winner", func(mt *mtest.T) {
		db.PaymentsCollection = mt.Coll
		db.BookingsCollection = mt.Coll
		expectReconcileLock(mt.T)

		h := NewHandlers(&fakeProcessor{session: paidSession()}, notify.NewHub(), "http://site")

		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),             // fast path misses
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bookingDoc), // booking lookup
			mtest.CreateWriteErrorsResponse(mtest.WriteError{ // unique index rejects the insert
				Index:   0,
				Code:    11000,
				Message: "E11000 duplicate key error index: unique_transaction_id",
			}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{ // winner's payment
				{Key: "transactionId", Value: "txn_1"},
				{Key: "trackingId", Value: "SD-WINNER"},
				{Key: "bookingId", Value: "b1"},
			}),
			mtest.CreateSuccessResponse(), // idempotent booking stamp
		)

		rec := httptest.NewRecorder()
		h.Reconcile(rec, reconcileRequest(), nil)

		require.Equal(mt.T, http.StatusOK, rec.Code, rec.Body.String())
		body := decodeBody(mt.T, rec)
		assert.Equal(mt.T, true, body["success"])
		assert.Equal(mt.T, "SD-WINNER", body["trackingId"])
	})
}

// A late duplicate must not rewind a booking that was assigned after the
// first reconcile; the stamp filter only matches pre-assignment states.
func TestPaidStampFilterStopsBeforeAssignment(t *testing.T) {
	filter := paidStampFilter("b1")
	require.Equal(t, "b1", filter["bookingId"])

	in, ok := filter["serviceStatus"].(bson.M)["$in"].(bson.A)
	require.True(t, ok)
	assert.Contains(t, in, models.StatusRequested)
	assert.Contains(t, in, models.StatusPaidAwaiting)
	assert.NotContains(t, in, models.StatusDecoratorAssigned)
	assert.NotContains(t, in, models.StatusCompleted)
	assert.NotContains(t, in, models.StatusCancelled)

	update := paidStampUpdate("SD-AAAAAA")
	set := update["$set"].(bson.M)
	assert.Equal(t, models.PaymentPaid, set["paymentStatus"])
	assert.Equal(t, models.StatusPaidAwaiting, set["serviceStatus"])
	assert.Equal(t, "SD-AAAAAA", set["trackingId"])
}
