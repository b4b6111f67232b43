package services

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/KanittaJHA/planahead-task-manager-backend/models"
)

type UserService struct {
	usersCollection  *mongo.Collection
	tasksCollection  *mongo.Collection
	jwtService       *JWTService
	adminInviteToken string
}

func NewUserService(usersCollection, tasksCollection *mongo.Collection, jwtService *JWTService, adminInviteToken string) *UserService {
	return &UserService{
		usersCollection:  usersCollection,
		tasksCollection:  tasksCollection,
		jwtService:       jwtService,
		adminInviteToken: adminInviteToken,
	}
}

type RegisterInput struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	ProfileImageURL  string `json:"profileImageUrl"`
	AdminInviteToken string `json:"adminInviteToken"`
}

// Register creates a user and returns it with a fresh token. The admin
// role is only granted when the submitted invite token matches the
// configured one; everyone else becomes a member.
func (s *UserService) Register(input RegisterInput) (*models.User, string, error) {
	if input.Name == "" {
		return nil, "", newValidationError("name is required")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, "", newValidationError("invalid email address")
	}
	if len(input.Password) < 8 {
		return nil, "", newValidationError("password must be at least 8 characters long")
	}

	err := s.usersCollection.FindOne(context.Background(), bson.M{"email": input.Email}).Err()
	if err == nil {
		return nil, "", newValidationError("user already exists")
	}
	if err != mongo.ErrNoDocuments {
		return nil, "", fmt.Errorf("failed to check existing user: %v", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %v", err)
	}

	role := models.RoleMember
	if s.adminInviteToken != "" && input.AdminInviteToken == s.adminInviteToken {
		role = models.RoleAdmin
	}

	user := &models.User{
		ID:              primitive.NewObjectID(),
		Name:            input.Name,
		Email:           input.Email,
		Password:        string(hashedPassword),
		Role:            role,
		ProfileImageURL: input.ProfileImageURL,
		CreatedAt:       time.Now(),
	}

	result, err := s.usersCollection.InsertOne(context.Background(), user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to save user: %v", err)
	}
	user.ID = result.InsertedID.(primitive.ObjectID)

	token, err := s.jwtService.GenerateToken(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %v", err)
	}

	return user, token, nil
}

// Login verifies the credentials and returns the user with a fresh token.
// A missing user and a wrong password are indistinguishable to the caller.
func (s *UserService) Login(email, password string) (*models.User, string, error) {
	var user models.User
	err := s.usersCollection.FindOne(context.Background(), bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to retrieve user: %v", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %v", err)
	}

	return &user, token, nil
}

func (s *UserService) GetUserByID(userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.usersCollection.FindOne(context.Background(), bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %v", err)
	}
	return &user, nil
}

type UpdateProfileInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ProfileImageURL string `json:"profileImageUrl"`
}

// UpdateProfile changes the caller's own name, email, password or image.
// Empty fields are left untouched. The role never changes here. A new
// token is issued so the client keeps a fresh expiry.
func (s *UserService) UpdateProfile(userID primitive.ObjectID, input UpdateProfileInput) (*models.User, string, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, "", err
	}

	set := bson.M{}
	if input.Name != "" {
		set["name"] = input.Name
	}
	if input.Email != "" && input.Email != user.Email {
		if _, err := mail.ParseAddress(input.Email); err != nil {
			return nil, "", newValidationError("invalid email address")
		}
		err := s.usersCollection.FindOne(context.Background(), bson.M{"email": input.Email}).Err()
		if err == nil {
			return nil, "", newValidationError("email already in use")
		}
		if err != mongo.ErrNoDocuments {
			return nil, "", fmt.Errorf("failed to check existing email: %v", err)
		}
		set["email"] = input.Email
	}
	if input.Password != "" {
		if len(input.Password) < 8 {
			return nil, "", newValidationError("password must be at least 8 characters long")
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, "", fmt.Errorf("failed to hash password: %v", err)
		}
		set["password"] = string(hashedPassword)
	}
	if input.ProfileImageURL != "" {
		set["profileImageUrl"] = input.ProfileImageURL
	}

	if len(set) > 0 {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = s.usersCollection.FindOneAndUpdate(context.Background(), bson.M{"_id": userID}, bson.M{"$set": set}, opts).Decode(user)
		if err != nil {
			return nil, "", fmt.Errorf("failed to update profile: %v", err)
		}
	}

	token, err := s.jwtService.GenerateToken(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %v", err)
	}

	return user, token, nil
}

type userStatusBucket struct {
	ID struct {
		User   primitive.ObjectID `bson:"user"`
		Status models.TaskStatus  `bson:"status"`
	} `bson:"_id"`
	Count int `bson:"count"`
}

// GetMembersWithTaskCounts lists all members together with how many of
// their assigned tasks sit in each status. The counts come from one
// grouped aggregation over the tasks collection rather than per-user
// count queries.
func (s *UserService) GetMembersWithTaskCounts() ([]models.UserWithTaskCounts, error) {
	cursor, err := s.usersCollection.Find(context.Background(), bson.M{"role": models.RoleMember})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %v", err)
	}
	defer cursor.Close(context.Background())

	var users []models.User
	if err := cursor.All(context.Background(), &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %v", err)
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$unwind", Value: "$assignedTo"}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"user": "$assignedTo", "status": "$status"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	countCursor, err := s.tasksCollection.Aggregate(context.Background(), pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate task counts: %v", err)
	}
	defer countCursor.Close(context.Background())

	var buckets []userStatusBucket
	if err := countCursor.All(context.Background(), &buckets); err != nil {
		return nil, fmt.Errorf("failed to decode task counts: %v", err)
	}

	return mergeTaskCounts(users, buckets), nil
}

// mergeTaskCounts joins the aggregation buckets onto the user list.
func mergeTaskCounts(users []models.User, buckets []userStatusBucket) []models.UserWithTaskCounts {
	counts := make(map[primitive.ObjectID]map[models.TaskStatus]int, len(users))
	for _, bucket := range buckets {
		if counts[bucket.ID.User] == nil {
			counts[bucket.ID.User] = make(map[models.TaskStatus]int)
		}
		counts[bucket.ID.User][bucket.ID.Status] = bucket.Count
	}

	result := make([]models.UserWithTaskCounts, len(users))
	for i, user := range users {
		result[i] = models.UserWithTaskCounts{
			User:            user,
			PendingTasks:    counts[user.ID][models.StatusPending],
			InProgressTasks: counts[user.ID][models.StatusInProgress],
			CompletedTasks:  counts[user.ID][models.StatusCompleted],
		}
	}
	return result
}
