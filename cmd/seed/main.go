// Command seed populates a development database with fake users,
// posts, comments and likes.
package main

import (
	"flag"
	"fmt"
	"math/rand"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell-app/backend/internal/config"
	"github.com/inkwell-app/backend/internal/database"
	"github.com/inkwell-app/backend/internal/logger"
	"github.com/inkwell-app/backend/internal/models"
)

// Every seeded account gets the same password for easy local login
const seedPassword = "password123"

func main() {
	userCount := flag.Int("users", 20, "number of users to create")
	postsPerUser := flag.Int("posts", 5, "max posts per user")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Initialize(cfg.LogLevel, "seed.log"); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Log.Sync()

	if err := database.Initialize(cfg.DatabaseURL, false); err != nil {
		logger.FatalWithFields("Failed to connect to database", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	if err := seed(*userCount, *postsPerUser); err != nil {
		logger.FatalWithFields("Seeding failed", err)
	}

	logger.Log.Info("Seeding complete",
		zap.Int("users", *userCount),
		zap.String("password", seedPassword))
}

func seed(userCount, postsPerUser int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := make([]models.User, 0, userCount)
	for i := 0; i < userCount; i++ {
		user := models.User{
			Email:        gofakeit.Email(),
			Username:     fmt.Sprintf("%s%d", gofakeit.Username(), i),
			DisplayName:  gofakeit.Name(),
			Bio:          gofakeit.Sentence(12),
			PasswordHash: string(hash),
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}

	var posts []models.Post
	for _, user := range users {
		n := rand.Intn(postsPerUser + 1)
		for i := 0; i < n; i++ {
			post := models.Post{
				UserID: user.ID,
				Title:  gofakeit.Sentence(6),
				Body:   gofakeit.Paragraph(3, 5, 12, "\n\n"),
			}
			if err := database.DB.Create(&post).Error; err != nil {
				return fmt.Errorf("create post: %w", err)
			}
			posts = append(posts, post)
		}
		if err := database.DB.Model(&models.User{}).Where("id = ?", user.ID).
			UpdateColumn("post_count", n).Error; err != nil {
			return fmt.Errorf("update post count: %w", err)
		}
	}

	for _, post := range posts {
		// A random subset of other users engages with each post
		likeCount, commentCount := 0, 0
		for _, user := range users {
			if user.ID == post.UserID {
				continue
			}
			if rand.Float32() < 0.3 {
				like := models.Like{PostID: post.ID, UserID: user.ID}
				if err := database.DB.Create(&like).Error; err != nil {
					return fmt.Errorf("create like: %w", err)
				}
				likeCount++
			}
			if rand.Float32() < 0.2 {
				comment := models.Comment{
					PostID: post.ID,
					UserID: user.ID,
					Body:   gofakeit.Sentence(10),
				}
				if err := database.DB.Create(&comment).Error; err != nil {
					return fmt.Errorf("create comment: %w", err)
				}
				commentCount++
			}
		}
		if err := database.DB.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumns(map[string]interface{}{
				"like_count":    likeCount,
				"comment_count": commentCount,
			}).Error; err != nil {
			return fmt.Errorf("update counters: %w", err)
		}
	}

	return nil
}
