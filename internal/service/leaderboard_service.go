package service

import (
	"context"
	"edurace_backend/internal/model"
	"edurace_backend/internal/repository"
	"edurace_backend/internal/util"
	"edurace_backend/pkg/logger"
	"edurace_backend/pkg/monitoring"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LeaderboardService 维护课程维度的全量排名。
// recompute 在每课程互斥区内整表替换；不同课程之间完全并行。
type LeaderboardService struct {
	LeaderboardRepo *repository.LeaderboardRepository
	AttemptRepo     *repository.AttemptRepository
	EnrollmentRepo  *repository.EnrollmentRepository
	UserRepo        *repository.UserRepository
	Redis           *redis.Client
	CacheTTL        time.Duration

	courseMu *util.KeyedMutex
}

func NewLeaderboardService(
	leaderboardRepo *repository.LeaderboardRepository,
	attemptRepo *repository.AttemptRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	userRepo *repository.UserRepository,
	rdb *redis.Client,
	cacheTTL time.Duration,
) *LeaderboardService {
	return &LeaderboardService{
		LeaderboardRepo: leaderboardRepo,
		AttemptRepo:     attemptRepo,
		EnrollmentRepo:  enrollmentRepo,
		UserRepo:        userRepo,
		Redis:           rdb,
		CacheTTL:        cacheTTL,
		courseMu:        util.NewKeyedMutex(),
	}
}

func leaderboardCacheKey(courseID uint) string {
	return fmt.Sprintf("leaderboard:course:%d", courseID)
}

// Recompute 重建一门课程的排行榜。输入不变时结果幂等。
func (s *LeaderboardService) Recompute(ctx context.Context, courseID uint) error {
	key := fmt.Sprintf("course:%d", courseID)
	s.courseMu.Lock(key)
	defer s.courseMu.Unlock(key)

	start := time.Now()
	defer func() {
		monitoring.LeaderboardRecomputeDuration.Observe(time.Since(start).Seconds())
	}()

	rows, err := s.AttemptRepo.AggregateCoursePoints(courseID)
	if err != nil {
		return err
	}

	activeIDs, err := s.EnrollmentRepo.ActiveStudentIDs(courseID)
	if err != nil {
		return err
	}
	active := make(map[uint]bool, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = true
	}

	seen := make(map[uint]bool, len(rows))
	eligible := rows[:0]
	for _, row := range rows {
		if active[row.StudentID] {
			eligible = append(eligible, row)
			seen[row.StudentID] = true
		}
	}
	// 没有任何通过记录的在读学生也上榜，积分记 0
	for _, id := range activeIDs {
		if !seen[id] {
			eligible = append(eligible, repository.StudentPoints{StudentID: id})
		}
	}

	entries := RankCoursePoints(courseID, eligible)

	if err := s.LeaderboardRepo.ReplaceForCourse(courseID, entries); err != nil {
		return fmt.Errorf("%w: replace leaderboard for course %d: %v", util.ErrStorageUnavailable, courseID, err)
	}

	s.refreshCache(ctx, courseID, entries)
	return nil
}

// RankCoursePoints 纯排序与定名次：积分降序，同分按最近一次通过
// 尝试的完成时间早者在前，再按学生 ID 升序兜底。名次为密集名次，
// 同分同名次，下一个不同积分的名次 = 积分严格更高的人数 + 1。
// 零值 LastQualifiedAt 表示还没有通过记录，同分时排在有记录者之后。
func RankCoursePoints(courseID uint, rows []repository.StudentPoints) []model.LeaderboardEntry {
	sorted := make([]repository.StudentPoints, len(rows))
	copy(sorted, rows)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Points != sorted[j].Points {
			return sorted[i].Points > sorted[j].Points
		}
		if sorted[i].LastQualifiedAt.IsZero() != sorted[j].LastQualifiedAt.IsZero() {
			return !sorted[i].LastQualifiedAt.IsZero()
		}
		if !sorted[i].LastQualifiedAt.Equal(sorted[j].LastQualifiedAt) {
			return sorted[i].LastQualifiedAt.Before(sorted[j].LastQualifiedAt)
		}
		return sorted[i].StudentID < sorted[j].StudentID
	})

	entries := make([]model.LeaderboardEntry, 0, len(sorted))
	for i, row := range sorted {
		rank := i + 1
		if i > 0 && row.Points == sorted[i-1].Points {
			rank = entries[i-1].RankPosition
		}
		entry := model.LeaderboardEntry{
			CourseID:     courseID,
			StudentID:    row.StudentID,
			TotalPoints:  row.Points,
			RankPosition: rank,
		}
		if !row.LastQualifiedAt.IsZero() {
			qualified := row.LastQualifiedAt
			entry.LastQualifiedAt = &qualified
		}
		entries = append(entries, entry)
	}
	return entries
}

// GetLeaderboard 优先走 Redis 缓存，miss 再回库并回填
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, courseID uint) ([]model.LeaderboardEntry, error) {
	if s.Redis != nil {
		raw, err := s.Redis.Get(ctx, leaderboardCacheKey(courseID)).Result()
		if err == nil {
			var entries []model.LeaderboardEntry
			if json.Unmarshal([]byte(raw), &entries) == nil {
				return entries, nil
			}
		} else if err != redis.Nil {
			logger.Log.Warn("leaderboard cache read failed", zap.Uint("courseId", courseID), zap.Error(err))
		}
	}

	entries, err := s.LeaderboardRepo.ListByCourse(courseID)
	if err != nil {
		return nil, err
	}
	s.refreshCache(ctx, courseID, entries)
	return entries, nil
}

func (s *LeaderboardService) refreshCache(ctx context.Context, courseID uint, entries []model.LeaderboardEntry) {
	if s.Redis == nil {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, leaderboardCacheKey(courseID), raw, s.CacheTTL).Err(); err != nil {
		// 缓存失败不影响主流程
		logger.Log.Warn("leaderboard cache write failed", zap.Uint("courseId", courseID), zap.Error(err))
	}
}

// StudentRank 返回学生当前名次，无上榜记录时为 0
func (s *LeaderboardService) StudentRank(courseID, studentID uint) (int, error) {
	entry, err := s.LeaderboardRepo.FindByCourseAndStudent(courseID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return entry.RankPosition, nil
}

// GlobalRankingEntry 平台总分榜单行
type GlobalRankingEntry struct {
	Rank        int    `json:"rank"`
	UserID      uint   `json:"userId"`
	Name        string `json:"name"`
	TotalPoints int    `json:"totalPoints"`
}

// GetGlobalRanking 平台维度按用户总积分取前 N
func (s *LeaderboardService) GetGlobalRanking(limit int) ([]GlobalRankingEntry, error) {
	users, err := s.UserRepo.FindTopByPoints(limit)
	if err != nil {
		return nil, err
	}
	ranking := make([]GlobalRankingEntry, len(users))
	for i, u := range users {
		rank := i + 1
		if i > 0 && u.TotalPoints == users[i-1].TotalPoints {
			rank = ranking[i-1].Rank
		}
		ranking[i] = GlobalRankingEntry{
			Rank:        rank,
			UserID:      u.ID,
			Name:        u.FullName(),
			TotalPoints: u.TotalPoints,
		}
	}
	return ranking, nil
}
