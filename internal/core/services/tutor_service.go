package services

import (
	"context"
	"errors"
	"fmt"

	"coursemart/internal/adapters/persistence/repositories"
	"coursemart/internal/core/domain"

	"gorm.io/gorm"
)

// Tutor errors
var (
	ErrTutorUnavailable = errors.New("AI tutor is not configured")
	ErrTutorNoAccess    = errors.New("enroll in this course to use its tutor")
	ErrTutorFailed      = errors.New("AI tutor request failed")
)

const tutorPrompt = "You are a patient teaching assistant for an online course marketplace. " +
	"Answer clearly, use short examples, and say so when you are unsure."

// TutorService proxies tutor conversations
type TutorService struct {
	repos  *repositories.Registry
	client ChatCompleter
}

// NewTutorService creates a new tutor service
func NewTutorService(repos *repositories.Registry, client ChatCompleter) *TutorService {
	return &TutorService{repos: repos, client: client}
}

// ChatInput is a conversation, optionally scoped to a course
type ChatInput struct {
	CourseID *uint                `json:"courseId"`
	Messages []domain.ChatMessage `json:"messages" validate:"required,min=1,max=30,dive"`
}

// ChatReply is the assistant's answer
type ChatReply struct {
	Reply string `json:"reply"`
}

// Chat answers the conversation. Course-scoped chats need access to the
// course: a paid enrollment, ownership or the admin role.
func (s *TutorService) Chat(ctx context.Context, actor domain.Actor, input *ChatInput) (*ChatReply, error) {
	if s.client == nil || !s.client.Configured() {
		return nil, ErrTutorUnavailable
	}

	system := tutorPrompt
	if input.CourseID != nil {
		course, err := s.repos.Courses.GetByID(ctx, *input.CourseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCourseNotFound
			}
			return nil, err
		}

		if !actor.Owns(course.InstructorID) {
			ok, err := s.repos.Courses.HasStudent(ctx, course.ID, actor.UserID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, ErrTutorNoAccess
			}
		}

		system += fmt.Sprintf("\n\nThe student is taking the course %q.\nCourse description: %s",
			course.Title, course.Description)
	}

	messages := make([]domain.ChatMessage, 0, len(input.Messages)+1)
	messages = append(messages, domain.ChatMessage{Role: domain.ChatRoleSystem, Content: system})
	messages = append(messages, input.Messages...)

	reply, err := s.client.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTutorFailed, err)
	}
	return &ChatReply{Reply: reply}, nil
}
