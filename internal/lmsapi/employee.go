package lmsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/p-n-ai/pai-lms/internal/assignment"
	"github.com/p-n-ai/pai-lms/internal/capstone"
	"github.com/p-n-ai/pai-lms/internal/quiz"
)

// AssignedCourses lists the signed-in employee's courses.
func (c *Client) AssignedCourses(ctx context.Context) ([]assignment.AssignedCourse, error) {
	out := []assignment.AssignedCourse{}
	if err := c.get(ctx, "/api/employee/courses", &out); err != nil {
		return nil, fmt.Errorf("list assigned courses: %w", err)
	}
	return out, nil
}

// CourseDetail opens one assigned course.
func (c *Client) CourseDetail(ctx context.Context, courseID string) (CourseDetail, error) {
	var out CourseDetail
	if err := c.get(ctx, pathf("/api/employee/courses/%s", courseID), &out); err != nil {
		return CourseDetail{}, fmt.Errorf("get course: %w", err)
	}
	return out, nil
}

// StartCourse marks an assigned course as in progress.
func (c *Client) StartCourse(ctx context.Context, courseID string) error {
	if err := c.post(ctx, pathf("/api/employee/courses/%s/start", courseID), nil, nil); err != nil {
		return fmt.Errorf("start course: %w", err)
	}
	return nil
}

// QuizQuestions loads the quiz of a course. The backend answers with either
// a bare list or an object holding a questions list.
func (c *Client) QuizQuestions(ctx context.Context, courseID string) ([]quiz.Question, error) {
	var raw json.RawMessage
	if err := c.get(ctx, pathf("/api/employee/courses/%s/quiz", courseID), &raw); err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	out := []quiz.Question{}
	if len(raw) == 0 {
		return out, nil
	}
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode quiz: %w", err)
		}
		return out, nil
	}
	var wrapped struct {
		Questions []quiz.Question `json:"questions"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode quiz: %w", err)
	}
	if wrapped.Questions != nil {
		out = wrapped.Questions
	}
	return out, nil
}

// SubmitQuiz sends answers for grading.
func (c *Client) SubmitQuiz(ctx context.Context, courseID string, s quiz.Submission) (quiz.Result, error) {
	var out quiz.Result
	if err := c.post(ctx, pathf("/api/employee/courses/%s/submit-quiz", courseID), s, &out); err != nil {
		return quiz.Result{}, fmt.Errorf("submit quiz: %w", err)
	}
	return out, nil
}

// ProfileDetails returns the signed-in employee's profile.
func (c *Client) ProfileDetails(ctx context.Context) (ProfileDetails, error) {
	var out ProfileDetails
	if err := c.get(ctx, "/api/employee/profile-details", &out); err != nil {
		return ProfileDetails{}, fmt.Errorf("get profile details: %w", err)
	}
	return out, nil
}

// UpdateProfileDetails updates the signed-in employee's profile.
func (c *Client) UpdateProfileDetails(ctx context.Context, u ProfileUpdate) (ProfileDetails, error) {
	var out ProfileDetails
	if err := c.put(ctx, "/api/employee/profile-details", u, &out); err != nil {
		return ProfileDetails{}, fmt.Errorf("update profile details: %w", err)
	}
	return out, nil
}

// Capstones lists capstone summaries.
func (c *Client) Capstones(ctx context.Context) ([]capstone.ListItem, error) {
	out := []capstone.ListItem{}
	if err := c.get(ctx, "/api/capstones", &out); err != nil {
		return nil, fmt.Errorf("list capstones: %w", err)
	}
	return out, nil
}

// Capstone returns one capstone with its guidelines.
func (c *Client) Capstone(ctx context.Context, id string) (capstone.Detail, error) {
	var out capstone.Detail
	if err := c.get(ctx, pathf("/api/capstones/%s", id), &out); err != nil {
		return capstone.Detail{}, fmt.Errorf("get capstone: %w", err)
	}
	return out, nil
}
