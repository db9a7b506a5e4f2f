package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/tazhibayda/account-service/internal/domain"
	"github.com/tazhibayda/account-service/internal/helper"
)

var (
	ErrEmailExists = errors.New("email already registered")
	ErrNotFound    = errors.New("not found")
)

type Store struct {
	Client   *mongo.Client
	DB       *mongo.Database
	colUsers *mongo.Collection
}

func NewStore(ctx context.Context, uri, dbname string) (*Store, error) {
	cli, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetRetryWrites(true).
		SetMaxPoolSize(50),
	)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx, nil); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, err
	}
	db := cli.Database(dbname)
	return &Store{Client: cli, DB: db, colUsers: db.Collection("users")}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// EnsureUserIndexes creates the unique email index the signup flow relies on.
func (s *Store) EnsureUserIndexes(ctx context.Context) error {
	_, err := s.colUsers.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
		{
			// only documents holding a token are indexed
			Keys: bson.D{{Key: "reset_password_token", Value: 1}},
			Options: options.Index().SetName("reset_token").
				SetPartialFilterExpression(bson.M{"reset_password_token": bson.M{"$type": "string"}}),
		},
	})
	return err
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.user.find_by_email",
		tracer.Tag("email_ref", helper.EmailRef(email)),
	)
	defer sp.Finish()
	return s.findOne(ctx, sp, bson.M{"email": helper.NormalizeEmail(email)})
}

// FindUserByResetToken matches only a token that is still stored on the user;
// expired tokens are returned so the caller can tell them apart from unknown ones.
func (s *Store) FindUserByResetToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, nil
	}
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.user.find_by_reset_token")
	defer sp.Finish()
	return s.findOne(ctx, sp, bson.M{"reset_password_token": token})
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.user.find_by_id")
	defer sp.Finish()
	return s.findOne(ctx, sp, bson.M{"_id": oid})
}

func (s *Store) findOne(ctx context.Context, sp ddtrace.Span, filter bson.M) (*domain.User, error) {
	var u domain.User
	err := s.colUsers.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		sp.SetTag("error", err)
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.user.insert",
		tracer.Tag("provider", string(u.AuthProvider)),
	)
	defer sp.Finish()

	prepareNewUser(u)
	res, err := s.colUsers.InsertOne(ctx, u)
	if IsDup(err) {
		return ErrEmailExists
	}
	if err != nil {
		sp.SetTag("error", err)
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.user.update_password")
	defer sp.Finish()
	return s.updateOne(ctx, sp, id, bson.M{"password": hash})
}

// UpdateResetToken overwrites both reset fields; nil values clear them.
func (s *Store) UpdateResetToken(ctx context.Context, id primitive.ObjectID, token *string, expiresAt *time.Time) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.user.update_reset_token",
		tracer.Tag("clear", token == nil),
	)
	defer sp.Finish()
	return s.updateOne(ctx, sp, id, bson.M{
		"reset_password_token":         token,
		"reset_password_token_expired": expiresAt,
	})
}

func (s *Store) updateOne(ctx context.Context, sp ddtrace.Span, id primitive.ObjectID, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	res, err := s.colUsers.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		sp.SetTag("error", err)
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func prepareNewUser(u *domain.User) {
	now := time.Now().UTC()
	u.Email = helper.NormalizeEmail(u.Email)
	if u.AuthProvider == "" {
		u.AuthProvider = domain.ProviderLocal
	}
	u.CreatedAt = now
	u.UpdatedAt = now
}

func IsDup(err error) bool {
	if err == nil {
		return false
	}
	return mongo.IsDuplicateKeyError(err)
}
