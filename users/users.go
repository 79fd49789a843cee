package users

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"styledecor/db"
	"styledecor/logger"
	"styledecor/models"
	"styledecor/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

// SearchUsers returns the directory, optionally filtered by a case-insensitive
// substring match against name or email.
func SearchUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	searchText := r.URL.Query().Get("searchText")

	filter := bson.M{}
	if searchText != "" {
		regex := primitive.Regex{Pattern: utils.RegexEscape(searchText), Options: "i"}
		filter = bson.M{"$or": []bson.M{
			{"name": regex},
			{"email": regex},
		}}
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	cur, err := db.UserCollection.Find(ctx, filter)
	if err != nil {
		logger.L.Errorw("user search failed", "err", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var result []models.User
	if err := cur.All(ctx, &result); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	if result == nil {
		result = []models.User{}
	}
	utils.RespondWithJSON(w, http.StatusOK, result)
}

// MyUserInfo returns the caller's own directory entry. The email query
// parameter must match the verified identity.
func MyUserInfo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email := strings.ToLower(r.URL.Query().Get("email"))
	if email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "email is required")
		return
	}
	if email != utils.GetIdentityFromRequest(r) {
		utils.RespondWithError(w, http.StatusForbidden, "forbidden")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	var user models.User
	err := db.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{})
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, user)
}

// GetUserRole returns the stored role, defaulting to customer when unset.
func GetUserRole(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	email := strings.ToLower(ps.ByName("id"))
	if email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "email is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	role := RoleOf(ctx, email)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"role": role})
}

// RoleOf looks up the role for an identity; unknown identities and entries
// with no stored role both come back as customer.
func RoleOf(ctx context.Context, email string) models.Role {
	var user struct {
		Role models.Role `bson:"role"`
	}
	err := db.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil || user.Role == "" {
		return models.RoleCustomer
	}
	return user.Role
}

// CreateOrUpdateUser upserts a directory entry. Re-posting an existing
// identity acknowledges as an update rather than erroring; the old
// duplicate-conflict behavior was dropped deliberately.
func CreateOrUpdateUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var payload struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Photo string `json:"photo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	payload.Email = strings.ToLower(payload.Email)
	if payload.Email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "email is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"name":      payload.Name,
			"photo":     payload.Photo,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"email":     payload.Email,
			"role":      models.RoleCustomer,
			"createdAt": now,
		},
	}

	res, err := db.UserCollection.UpdateOne(ctx,
		bson.M{"email": payload.Email},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		logger.L.Errorw("user upsert failed", "email", payload.Email, "err", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	if res.UpsertedCount > 0 {
		utils.RespondWithJSON(w, http.StatusCreated, utils.M{"message": "User Created"})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "User Updated"})
}

// SetUserRole updates the role of a directory entry. Promoting to decorator
// marks the user available; any other role clears availability.
func SetUserRole(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	email := strings.ToLower(ps.ByName("id"))
	if email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "id is required")
		return
	}

	var payload struct {
		Role models.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if payload.Role != models.RoleCustomer && payload.Role != models.RoleDecorator && payload.Role != models.RoleAdmin {
		utils.RespondWithError(w, http.StatusBadRequest, "unknown role")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	res := db.UserCollection.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		RoleUpdate(payload.Role),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.User
	if err := res.Decode(&updated); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "user not found")
		return
	}

	logger.L.Infow("role updated", "email", email, "role", payload.Role)
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// RoleUpdate builds the update document for a role change, including the
// availability side effect.
func RoleUpdate(role models.Role) bson.M {
	set := bson.M{
		"role":      role,
		"updatedAt": time.Now(),
	}
	if role == models.RoleDecorator {
		set["status"] = models.AvailabilityAvailable
		return bson.M{"$set": set}
	}
	return bson.M{
		"$set":   set,
		"$unset": bson.M{"status": ""},
	}
}

// ListDecoratorsByStatus lists decorators filtered by availability.
func ListDecoratorsByStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	status := ps.ByName("id")

	filter := bson.M{"role": models.RoleDecorator}
	if status != "" && status != "all" {
		filter["status"] = status
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	cur, err := db.UserCollection.Find(ctx, filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var decorators []models.User
	if err := cur.All(ctx, &decorators); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	if decorators == nil {
		decorators = []models.User{}
	}
	utils.RespondWithJSON(w, http.StatusOK, decorators)
}

// EnsureOwnership verifies that the caller either is the named identity or
// holds the admin role. Writes a 403 and returns false otherwise.
func EnsureOwnership(w http.ResponseWriter, r *http.Request, email string) bool {
	caller := utils.GetIdentityFromRequest(r)
	if caller == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "unauthenticated")
		return false
	}
	if strings.EqualFold(caller, email) {
		return true
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()
	if RoleOf(ctx, caller) == models.RoleAdmin {
		return true
	}

	utils.RespondWithError(w, http.StatusForbidden, "forbidden")
	return false
}
