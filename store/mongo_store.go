package store

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vesaki/vesaki-server/models"
)

// MongoStore implements Store on top of MongoDB.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) products() *mongo.Collection    { return s.db.Collection("products") }
func (s *MongoStore) swipes() *mongo.Collection      { return s.db.Collection("swipes") }
func (s *MongoStore) collections() *mongo.Collection { return s.db.Collection("collections") }
func (s *MongoStore) items() *mongo.Collection       { return s.db.Collection("collection_items") }
func (s *MongoStore) usersCol() *mongo.Collection    { return s.db.Collection("users") }
func (s *MongoStore) photos() *mongo.Collection      { return s.db.Collection("photos") }

func mapErr(err error) error {
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	return err
}

func (s *MongoStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := s.products().FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *MongoStore) GetProductByExternalID(ctx context.Context, externalID string) (*models.Product, error) {
	if externalID == "" {
		return nil, ErrNotFound
	}
	var p models.Product
	if err := s.products().FindOne(ctx, bson.M{"external_id": externalID}).Decode(&p); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *MongoStore) InsertProduct(ctx context.Context, p *models.Product) error {
	_, err := s.products().InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *MongoStore) SearchProducts(ctx context.Context, query string, count int) ([]models.Product, error) {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"name": re},
		bson.M{"brand": re},
		bson.M{"category": re},
		bson.M{"description": re},
	}}
	return s.findProducts(ctx, filter, count)
}

func (s *MongoStore) TrendingProducts(ctx context.Context, count int) ([]models.Product, error) {
	return s.findProducts(ctx, bson.M{"trending": true}, count)
}

func (s *MongoStore) RandomProducts(ctx context.Context, count int) ([]models.Product, error) {
	cursor, err := s.products().Aggregate(ctx, mongo.Pipeline{
		{{Key: "$sample", Value: bson.M{"size": count}}},
	})
	if err != nil {
		return nil, fmt.Errorf("sample products: %w", err)
	}
	defer cursor.Close(ctx)
	var out []models.Product
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) findProducts(ctx context.Context, filter bson.M, count int) ([]models.Product, error) {
	cursor, err := s.products().Find(ctx, filter, options.Find().SetLimit(int64(count)))
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)
	var out []models.Product
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) CountProducts(ctx context.Context) (int64, error) {
	return s.products().CountDocuments(ctx, bson.M{})
}

func (s *MongoStore) InsertSwipe(ctx context.Context, sw *models.Swipe) error {
	_, err := s.swipes().InsertOne(ctx, sw)
	if err != nil {
		return fmt.Errorf("insert swipe: %w", err)
	}
	return nil
}

func (s *MongoStore) ListSwipes(ctx context.Context, userID string) ([]models.Swipe, error) {
	opts := options.Find().SetSort(bson.D{{Key: "swiped_at", Value: -1}})
	cursor, err := s.swipes().Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find swipes: %w", err)
	}
	defer cursor.Close(ctx)
	var out []models.Swipe
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) DefaultCollection(ctx context.Context, userID string) (*models.Collection, error) {
	var c models.Collection
	err := s.collections().FindOne(ctx, bson.M{"user_id": userID, "is_default": true}).Decode(&c)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (s *MongoStore) InsertCollection(ctx context.Context, c *models.Collection) error {
	_, err := s.collections().InsertOne(ctx, c)
	if err != nil {
		return fmt.Errorf("insert collection: %w", err)
	}
	return nil
}

func (s *MongoStore) ListCollections(ctx context.Context, userID string) ([]models.Collection, error) {
	cursor, err := s.collections().Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("find collections: %w", err)
	}
	defer cursor.Close(ctx)
	var out []models.Collection
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) GetCollection(ctx context.Context, id string) (*models.Collection, error) {
	var c models.Collection
	if err := s.collections().FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (s *MongoStore) GetCollectionItem(ctx context.Context, collectionID, productID string) (*models.CollectionItem, error) {
	var item models.CollectionItem
	err := s.items().FindOne(ctx, bson.M{"collection_id": collectionID, "product_id": productID}).Decode(&item)
	if err != nil {
		return nil, mapErr(err)
	}
	return &item, nil
}

func (s *MongoStore) InsertCollectionItem(ctx context.Context, item *models.CollectionItem) error {
	_, err := s.items().InsertOne(ctx, item)
	if err != nil {
		return fmt.Errorf("insert collection item: %w", err)
	}
	return nil
}

func (s *MongoStore) SetCollectionItemTryOn(ctx context.Context, itemID, url string) error {
	res, err := s.items().UpdateOne(ctx,
		bson.M{"_id": itemID},
		bson.M{"$set": bson.M{"tryon_image_url": url}})
	if err != nil {
		return fmt.Errorf("update collection item: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ListCollectionItems(ctx context.Context, collectionID string) ([]models.CollectionItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "added_at", Value: -1}})
	cursor, err := s.items().Find(ctx, bson.M{"collection_id": collectionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find collection items: %w", err)
	}
	defer cursor.Close(ctx)
	var out []models.CollectionItem
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.usersCol().FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.usersCol().FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *MongoStore) InsertUser(ctx context.Context, u *models.User) error {
	_, err := s.usersCol().InsertOne(ctx, u)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *MongoStore) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := s.usersCol().ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ListPhotos(ctx context.Context, userID string) ([]models.Photo, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.photos().Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find photos: %w", err)
	}
	defer cursor.Close(ctx)
	var out []models.Photo
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) GetPhoto(ctx context.Context, id string) (*models.Photo, error) {
	var p models.Photo
	if err := s.photos().FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *MongoStore) InsertPhoto(ctx context.Context, p *models.Photo) error {
	_, err := s.photos().InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	return nil
}

func (s *MongoStore) DeletePhoto(ctx context.Context, id string) error {
	res, err := s.photos().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) SetPrimaryPhoto(ctx context.Context, userID, photoID string) error {
	res, err := s.photos().UpdateOne(ctx,
		bson.M{"_id": photoID, "user_id": userID},
		bson.M{"$set": bson.M{"is_primary": true}})
	if err != nil {
		return fmt.Errorf("set primary photo: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	_, err = s.photos().UpdateMany(ctx,
		bson.M{"user_id": userID, "_id": bson.M{"$ne": photoID}},
		bson.M{"$set": bson.M{"is_primary": false}})
	if err != nil {
		return fmt.Errorf("unset primary photos: %w", err)
	}
	_, err = s.usersCol().UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"primary_photo_id": photoID}})
	if err != nil {
		return fmt.Errorf("update user primary photo: %w", err)
	}
	return nil
}
