package analysis

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/jengzang/mobility-backend-go/internal/config"
	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/repository"
)

// Analysis modes passed to Analyze
const (
	ModeIncremental = "incremental"
	ModeFull        = "full"
)

// Analyzer is the interface that all analysis skills must implement
type Analyzer interface {
	// Analyze performs the analysis for a given task
	// taskID: the analysis task ID
	// mode: "incremental" or "full"
	Analyze(ctx context.Context, taskID int64, mode string) error

	// GetProgress returns the current progress of the analysis
	GetProgress(taskID int64) (*Progress, error)

	// GetName returns the name of the analyzer
	GetName() string
}

// ParamValidator is implemented by analyzers that can check task parameters
// before a task is created
type ParamValidator interface {
	ValidateParams(paramsJSON string) error
}

// Progress represents the progress of an analysis task
type Progress struct {
	Processed int     // Number of items processed
	Total     int     // Total number of items to process
	Failed    int     // Number of failed items
	Percent   float64 // Progress percentage (0-100)
}

// Deps are the shared resources handed to analyzer factories
type Deps struct {
	DB       *sql.DB
	Pings    repository.PingSource
	Mobility config.MobilityConfig
}

// BaseAnalyzer provides common functionality for all analyzers
type BaseAnalyzer struct {
	DB    *sql.DB
	Name  string
	Tasks *repository.AnalysisTaskRepository
}

// NewBaseAnalyzer creates a new base analyzer
func NewBaseAnalyzer(db *sql.DB, name string) *BaseAnalyzer {
	return &BaseAnalyzer{
		DB:    db,
		Name:  name,
		Tasks: repository.NewAnalysisTaskRepository(db),
	}
}

// GetName returns the analyzer name
func (a *BaseAnalyzer) GetName() string {
	return a.Name
}

// UpdateTaskProgress updates the progress of an analysis task in the database
func (a *BaseAnalyzer) UpdateTaskProgress(taskID int64, processed, total, failed int) error {
	percent := 0.0
	if total > 0 {
		percent = float64(processed) / float64(total) * 100.0
	}
	return a.Tasks.UpdateProgress(taskID, processed, failed, percent)
}

// MarkTaskAsRunning marks a task as running
func (a *BaseAnalyzer) MarkTaskAsRunning(taskID int64) error {
	return a.Tasks.MarkAsRunning(taskID)
}

// MarkTaskAsCompleted marks a task as completed with a result summary
func (a *BaseAnalyzer) MarkTaskAsCompleted(taskID int64, summary string) error {
	return a.Tasks.MarkAsCompleted(taskID, summary)
}

// GetTaskInfo retrieves the task record
func (a *BaseAnalyzer) GetTaskInfo(taskID int64) (*models.AnalysisTask, error) {
	return a.Tasks.GetByID(taskID)
}

// GetProgress returns the current progress from the database
func (a *BaseAnalyzer) GetProgress(taskID int64) (*Progress, error) {
	task, err := a.Tasks.GetByID(taskID)
	if err != nil {
		return nil, err
	}
	return &Progress{
		Processed: task.ProcessedItems,
		Total:     task.TotalItems,
		Failed:    task.FailedItems,
		Percent:   task.ProgressPercent,
	}, nil
}

// AnalyzerFactory is a function that creates an analyzer instance
type AnalyzerFactory func(deps Deps) Analyzer

var (
	registryMu       sync.RWMutex
	analyzerRegistry = make(map[string]AnalyzerFactory)
)

// RegisterAnalyzer registers an analyzer factory for a skill name
func RegisterAnalyzer(skillName string, factory AnalyzerFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := analyzerRegistry[skillName]; dup {
		panic(fmt.Sprintf("analysis: analyzer %q registered twice", skillName))
	}
	analyzerRegistry[skillName] = factory
}

// GetAnalyzer retrieves an analyzer instance for a skill name
func GetAnalyzer(skillName string, deps Deps) Analyzer {
	registryMu.RLock()
	factory, ok := analyzerRegistry[skillName]
	registryMu.RUnlock()
	if !ok {
		return nil
	}
	return factory(deps)
}

// IsRegistered checks if an analyzer exists for a skill name
func IsRegistered(skillName string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := analyzerRegistry[skillName]
	return ok
}

// RegisteredSkills lists the registered skill names in sorted order
func RegisteredSkills() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(analyzerRegistry))
	for name := range analyzerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
