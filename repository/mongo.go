package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"vietlingo/models"
)

const (
	usersCollection      = "users"
	loginsCollection     = "login_trackings"
	experienceCollection = "userexps"
	progressCollection   = "userprogresses"
)

// NewMongoStore wires the MongoDB repositories to db. Disconnecting client is left to the
// returned Store.
func NewMongoStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		Users:      &mongoUsers{users: db.Collection(usersCollection), logins: db.Collection(loginsCollection)},
		Experience: &mongoExperience{collection: db.Collection(experienceCollection)},
		Progress:   &mongoProgress{collection: db.Collection(progressCollection)},
		closer: func(ctx context.Context) error {
			if client == nil {
				return nil
			}
			return client.Disconnect(ctx)
		},
	}
}

// EnsureMongoIndexes creates the unique email index and the leaderboard index.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users.email index: %w", err)
	}

	_, err = db.Collection(experienceCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "points", Value: -1}, {Key: "updatedAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create userexps leaderboard index: %w", err)
	}

	_, err = db.Collection(loginsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "learnerId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create login_trackings index: %w", err)
	}
	return nil
}

func translateMongo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}

type mongoUsers struct {
	users  *mongo.Collection
	logins *mongo.Collection
}

func (r *mongoUsers) Create(ctx context.Context, user *models.User) error {
	ts := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = ts
	}
	user.UpdatedAt = ts
	if _, err := r.users.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("create user: %w", translateMongo(err))
	}
	return nil
}

func (r *mongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, translateMongo(err)
	}
	return &user, nil
}

func (r *mongoUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, translateMongo(err)
	}
	return &user, nil
}

func (r *mongoUsers) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	res, err := r.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return fmt.Errorf("update user: %w", translateMongo(err))
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoUsers) DisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	opts := options.Find().SetProjection(bson.M{"fullname": 1})
	cursor, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		names[u.ID] = u.Fullname
	}
	return names, nil
}

func (r *mongoUsers) RecordLogin(ctx context.Context, entry *models.LoginTracking) error {
	_, err := r.logins.InsertOne(ctx, entry)
	return err
}

func (r *mongoUsers) LoginHistory(ctx context.Context, learnerID string, offset, limit int) ([]models.LoginTracking, int64, error) {
	filter := bson.M{"learnerId": learnerID}
	opts := options.Find().
		SetSort(bson.M{"timestamp": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.logins.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var entries []models.LoginTracking
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, 0, err
	}
	total, err := r.logins.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

type mongoExperience struct {
	collection *mongo.Collection
}

func (r *mongoExperience) Find(ctx context.Context, learnerID string) (*models.ExperienceRecord, error) {
	var rec models.ExperienceRecord
	if err := r.collection.FindOne(ctx, bson.M{"_id": learnerID}).Decode(&rec); err != nil {
		return nil, translateMongo(err)
	}
	return &rec, nil
}

func (r *mongoExperience) Create(ctx context.Context, rec *models.ExperienceRecord) error {
	ts := time.Now()
	rec.CreatedAt, rec.UpdatedAt = ts, ts
	if _, err := r.collection.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("create experience record: %w", translateMongo(err))
	}
	return nil
}

func (r *mongoExperience) Save(ctx context.Context, rec *models.ExperienceRecord) error {
	updatedAt := time.Now()
	filter, update := experienceCAS(rec, updatedAt)
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("save experience record: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	rec.Version++
	rec.UpdatedAt = updatedAt
	return nil
}

// experienceCAS matches the stored document only at rec's version and bumps it.
func experienceCAS(rec *models.ExperienceRecord, updatedAt time.Time) (bson.M, bson.M) {
	filter := bson.M{"_id": rec.LearnerID, "version": rec.Version}
	update := bson.M{"$set": bson.M{
		"points":                rec.Points,
		"level":                 rec.Level,
		"levelName":             rec.LevelName,
		"streakCount":           rec.StreakCount,
		"lastStreakDate":        rec.LastStreakDate,
		"lessonsCompletedCount": rec.LessonsCompletedCount,
		"wordsLearnedCount":     rec.WordsLearnedCount,
		"version":               rec.Version + 1,
		"updatedAt":             updatedAt,
	}}
	return filter, update
}

// leaderboardSort orders by points, then earliest update, then id.
var leaderboardSort = bson.D{{Key: "points", Value: -1}, {Key: "updatedAt", Value: 1}, {Key: "_id", Value: 1}}

func (r *mongoExperience) Top(ctx context.Context, limit int) ([]models.ExperienceRecord, error) {
	opts := options.Find().
		SetSort(leaderboardSort).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var recs []models.ExperienceRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *mongoExperience) ResetBrokenStreaks(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{
			"streakCount": bson.M{"$gt": 0},
			"$or": []bson.M{
				{"lastStreakDate": nil},
				{"lastStreakDate": bson.M{"$lt": cutoff}},
			},
		},
		bson.M{
			"$set": bson.M{"streakCount": 0, "updatedAt": time.Now()},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

type mongoProgress struct {
	collection *mongo.Collection
}

func (r *mongoProgress) Find(ctx context.Context, learnerID string) (*models.ProgressRecord, error) {
	var rec models.ProgressRecord
	if err := r.collection.FindOne(ctx, bson.M{"_id": learnerID}).Decode(&rec); err != nil {
		return nil, translateMongo(err)
	}
	adoptProgress(&rec)
	return &rec, nil
}

// adoptProgress fills the fields embedded completions do not store.
func adoptProgress(rec *models.ProgressRecord) {
	for i := range rec.CompletedLessons {
		rec.CompletedLessons[i].LearnerID = rec.LearnerID
	}
	rec.Normalize()
}

func (r *mongoProgress) Create(ctx context.Context, rec *models.ProgressRecord) error {
	ts := time.Now()
	rec.CreatedAt, rec.UpdatedAt = ts, ts
	if _, err := r.collection.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("create progress record: %w", translateMongo(err))
	}
	return nil
}

// Save replaces the whole document; lesson completions are embedded so the CAS covers them.
func (r *mongoProgress) Save(ctx context.Context, rec *models.ProgressRecord) error {
	updatedAt := time.Now()
	filter, update := progressCAS(rec, updatedAt)
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("save progress record: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	rec.Version++
	rec.UpdatedAt = updatedAt
	return nil
}

func progressCAS(rec *models.ProgressRecord, updatedAt time.Time) (bson.M, bson.M) {
	filter := bson.M{"_id": rec.LearnerID, "version": rec.Version}
	update := bson.M{"$set": bson.M{
		"completedLessons": rec.CompletedLessons,
		"currentTopic":     rec.CurrentTopic,
		"currentLesson":    rec.CurrentLesson,
		"unlockedTopics":   []int(rec.UnlockedTopics),
		"lastActivity":     rec.LastActivity,
		"lastStudyDate":    rec.LastStudyDate,
		"totalStudyTime":   rec.TotalStudyTime,
		"version":          rec.Version + 1,
		"updatedAt":        updatedAt,
	}}
	return filter, update
}
