package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"styledecor/db"
	"styledecor/logger"
	"styledecor/models"
	"styledecor/rdx"
	"styledecor/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second
const latestCacheKey = "catalog:latest"
const latestCacheTTL = 60 * time.Second

// SearchServices lists packages with optional case-insensitive name search
// and page/limit pagination.
func SearchServices(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	opts := utils.ParseQueryOptions(r)

	filter := bson.M{}
	if opts.Search != "" {
		filter["serviceName"] = primitive.Regex{Pattern: utils.RegexEscape(opts.Search), Options: "i"}
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	total, err := db.ServicesCollection.CountDocuments(ctx, filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	findOpts := options.Find().
		SetSkip(int64((opts.Page - 1) * opts.Limit)).
		SetLimit(int64(opts.Limit))

	cur, err := db.ServicesCollection.Find(ctx, filter, findOpts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var services []models.ServicePackage
	if err := cur.All(ctx, &services); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	if services == nil {
		services = []models.ServicePackage{}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"services":   services,
		"totalCount": total,
	})
}

// ServiceDetails returns one package by id.
func ServiceDetails(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	serviceID := ps.ByName("id")
	if serviceID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "missing id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	var service models.ServicePackage
	err := db.ServicesCollection.FindOne(ctx, bson.M{"serviceId": serviceID}).Decode(&service)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "service not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, service)
}

// LatestServices returns the most recently added packages, newest first.
// Served from Redis when a fresh copy exists.
func LatestServices(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 50 {
		limit = 6
	}

	cacheKey := latestCacheKey + ":" + strconv.Itoa(limit)
	if cached, err := rdx.RdxGet(cacheKey); err == nil && cached != "" {
		var services []models.ServicePackage
		if json.Unmarshal([]byte(cached), &services) == nil {
			utils.RespondWithJSON(w, http.StatusOK, services)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), opTimeout)
	defer cancel()

	findOpts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetLimit(int64(limit))

	cur, err := db.ServicesCollection.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var services []models.ServicePackage
	if err := cur.All(ctx, &services); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	if services == nil {
		services = []models.ServicePackage{}
	}

	if data, err := json.Marshal(services); err == nil {
		if err := rdx.RdxSet(cacheKey, string(data), latestCacheTTL); err != nil {
			logger.L.Debugw("latest-services cache write failed", "err", err)
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, services)
}
