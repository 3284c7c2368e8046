package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/tutor-service/internal/cache"
	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// List retrieves the full question set with caching
func (q *QuestionPostgreSQL) List(ctx context.Context) ([]*models.QuizQuestion, error) {
	var questions []*models.QuizQuestion

	err := q.cacheManager.Question.CacheOrExecute(ctx, "list:all", &questions, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestions []*models.QuizQuestion
		if err := q.db.WithContext(ctx).Order("subject ASC, id ASC").Find(&dbQuestions).Error; err != nil {
			return nil, handleDBError(err, "list questions")
		}
		return dbQuestions, nil
	})
	if err != nil {
		return nil, err
	}

	return questions, nil
}

// ListBySubject retrieves one subject's questions with caching
func (q *QuestionPostgreSQL) ListBySubject(ctx context.Context, subject string) ([]*models.QuizQuestion, error) {
	var questions []*models.QuizQuestion
	cacheKey := fmt.Sprintf("list:subject:%s", subject)

	err := q.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &questions, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestions []*models.QuizQuestion
		if err := q.db.WithContext(ctx).Where("subject = ?", subject).Order("id ASC").Find(&dbQuestions).Error; err != nil {
			return nil, handleDBError(err, "list questions by subject")
		}
		return dbQuestions, nil
	})
	if err != nil {
		return nil, err
	}

	return questions, nil
}

func (q *QuestionPostgreSQL) UpsertMany(ctx context.Context, questions []*models.QuizQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	if err := upsertAll(q.db.WithContext(ctx)).CreateInBatches(questions, batchSize).Error; err != nil {
		return handleDBError(err, "upsert questions")
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager)
	return nil
}

func (q *QuestionPostgreSQL) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := q.db.WithContext(ctx).Model(&models.QuizQuestion{}).Count(&count).Error; err != nil {
		return 0, handleDBError(err, "count questions")
	}
	return count, nil
}
