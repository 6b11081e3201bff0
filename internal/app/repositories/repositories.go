package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository       *UserRepository
	InternshipRepository *InternshipRepository
	TaskRepository       *TaskRepository
	StudentRepository    *StudentRepository
	SupervisorRepository *SupervisorRepository
	DocumentRepository   *DocumentRepository
	MeetingRepository    *MeetingRepository
	AlertRepository      *AlertRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:       NewUserRepository(db),
		InternshipRepository: NewInternshipRepository(db),
		TaskRepository:       NewTaskRepository(db),
		StudentRepository:    NewStudentRepository(db),
		SupervisorRepository: NewSupervisorRepository(db),
		DocumentRepository:   NewDocumentRepository(db),
		MeetingRepository:    NewMeetingRepository(db),
		AlertRepository:      NewAlertRepository(db),
	}
}
