package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/jengzang/mobility-backend-go/internal/analysis"
	"github.com/jengzang/mobility-backend-go/internal/logging"
	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/repository"

	// registers the mobility analyzers
	_ "github.com/jengzang/mobility-backend-go/internal/analysis/mobility"
)

var (
	ErrUnknownSkill    = errors.New("unknown skill")
	ErrInvalidTaskType = errors.New("invalid task type")
	ErrInvalidParams   = errors.New("invalid task parameters")
	ErrTaskNotFound    = errors.New("task not found")
	ErrTaskNotRunning  = errors.New("task is not running")
)

const errCancelledByUser = "Task cancelled by user"

// AnalysisTaskService handles analysis task business logic
type AnalysisTaskService struct {
	repo *repository.AnalysisTaskRepository
	deps analysis.Deps

	mu      sync.Mutex
	running map[int64]context.CancelFunc
	wg      sync.WaitGroup
}

// NewAnalysisTaskService creates a new analysis task service
func NewAnalysisTaskService(repo *repository.AnalysisTaskRepository, deps analysis.Deps) *AnalysisTaskService {
	return &AnalysisTaskService{
		repo:    repo,
		deps:    deps,
		running: make(map[int64]context.CancelFunc),
	}
}

// Skills lists the skill names tasks can be created for
func (s *AnalysisTaskService) Skills() []string {
	return analysis.RegisteredSkills()
}

// CreateTask creates a new analysis task and starts its analyzer in the background
func (s *AnalysisTaskService) CreateTask(skillName string, taskType string, params map[string]interface{}, createdBy string) (*models.AnalysisTask, error) {
	if !analysis.IsRegistered(skillName) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSkill, skillName)
	}

	if taskType != models.TaskTypeIncremental && taskType != models.TaskTypeFullRecompute {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTaskType, taskType)
	}

	paramsJSON := ""
	if params != nil {
		paramsBytes, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize params: %w", err)
		}
		paramsJSON = string(paramsBytes)
	}

	analyzer := analysis.GetAnalyzer(skillName, s.deps)
	if v, ok := analyzer.(analysis.ParamValidator); ok {
		if err := v.ValidateParams(paramsJSON); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
	}

	task := &models.AnalysisTask{
		SkillName:  skillName,
		TaskType:   taskType,
		Status:     models.TaskStatusPending,
		ParamsJSON: paramsJSON,
		CreatedBy:  createdBy,
	}

	if err := s.repo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.running[task.ID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.executeAnalysis(ctx, analyzer, task.ID, taskType)

	return task, nil
}

// executeAnalysis runs an analyzer and records its failure
func (s *AnalysisTaskService) executeAnalysis(ctx context.Context, analyzer analysis.Analyzer, taskID int64, taskType string) {
	defer s.wg.Done()
	defer s.release(taskID)

	log := logging.With("analysis_task")
	log.Info().Int64("task_id", taskID).Str("skill", analyzer.GetName()).Str("type", taskType).Msg("executing analysis")

	mode := analysis.ModeIncremental
	if taskType == models.TaskTypeFullRecompute {
		mode = analysis.ModeFull
	}

	err := analyzer.Analyze(ctx, taskID, mode)
	if err == nil {
		log.Info().Int64("task_id", taskID).Msg("analysis completed")
		return
	}

	msg := fmt.Sprintf("Analysis failed: %v", err)
	if errors.Is(err, context.Canceled) {
		msg = errCancelledByUser
	}
	log.Error().Err(err).Int64("task_id", taskID).Msg("analysis failed")
	if markErr := s.repo.MarkAsFailed(taskID, msg); markErr != nil {
		log.Error().Err(markErr).Int64("task_id", taskID).Msg("failed to record task failure")
	}
}

func (s *AnalysisTaskService) release(taskID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.running[taskID]; ok {
		cancel()
		delete(s.running, taskID)
	}
}

// CountActive counts pending and running tasks across all skills
func (s *AnalysisTaskService) CountActive() (int, error) {
	total := 0
	for _, status := range []string{models.TaskStatusPending, models.TaskStatusRunning} {
		n, err := s.repo.CountByStatus("", status)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// GetTask retrieves a task by ID
func (s *AnalysisTaskService) GetTask(id int64) (*models.AnalysisTask, error) {
	task, err := s.repo.GetByID(id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	return task, err
}

// ListTasks retrieves all tasks with optional filters
func (s *AnalysisTaskService) ListTasks(skillName string, status string, limit int, offset int) ([]*models.AnalysisTask, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.List(skillName, status, limit, offset)
}

// CancelTask cancels a pending or running task
func (s *AnalysisTaskService) CancelTask(id int64) error {
	task, err := s.GetTask(id)
	if err != nil {
		return err
	}

	if task.Status != models.TaskStatusPending && task.Status != models.TaskStatusRunning {
		return fmt.Errorf("%w (status: %s)", ErrTaskNotRunning, task.Status)
	}

	s.mu.Lock()
	cancel, ok := s.running[id]
	s.mu.Unlock()
	if ok {
		cancel()
	}

	return s.repo.MarkAsFailed(id, errCancelledByUser)
}

// Wait blocks until every started analysis has returned
func (s *AnalysisTaskService) Wait() {
	s.wg.Wait()
}

// Shutdown cancels all running analyses and waits for them to stop
func (s *AnalysisTaskService) Shutdown() {
	s.mu.Lock()
	for _, cancel := range s.running {
		cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}
