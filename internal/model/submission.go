package model

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus enumerates review states of a submission.
type SubmissionStatus string

const (
	SubmissionStatusSubmitted   SubmissionStatus = "submitted"
	SubmissionStatusUnderReview SubmissionStatus = "under_review"
	SubmissionStatusApproved    SubmissionStatus = "approved"
	SubmissionStatusRejected    SubmissionStatus = "rejected"
)

// PersonalInfo is the personal-information block of a submission.
type PersonalInfo struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CollegeName string `json:"collegeName"`
	Department  string `json:"department"`
	Role        string `json:"role,omitempty"`
	Year        string `json:"year"`
	Semester    string `json:"semester"`
}

// ProjectDetails is the project block of a submission.
type ProjectDetails struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	WebsiteURL  string `json:"websiteUrl,omitempty"`
	GithubRepo  string `json:"githubRepo,omitempty"`
}

// Submission is the permanent record of a passing session.
type Submission struct {
	ID             uuid.UUID        `json:"id"`
	SessionID      uuid.UUID        `json:"sessionId"`
	PersonalInfo   PersonalInfo     `json:"personalInfo"`
	ProjectDetails ProjectDetails   `json:"projectDetails"`
	MCQAnswers     []MCQAnswer      `json:"mcqAnswers"`
	MCQScore       MCQScore         `json:"mcqScore"`
	Status         SubmissionStatus `json:"status"`
	SubmittedAt    time.Time        `json:"submittedAt"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// NewSubmission snapshots a session's accumulated form data together with the
// answer detail and score.
func NewSubmission(id uuid.UUID, s *ExamSession, answers []MCQAnswer, score MCQScore, now time.Time) *Submission {
	fd := s.FormData
	answers = slices.Clone(answers)
	if answers == nil {
		answers = []MCQAnswer{}
	}

	email := Str(fd.Email)
	if email == "" {
		email = s.Email
	}
	phone := Str(fd.Phone)
	if phone == "" {
		phone = s.Phone
	}

	return &Submission{
		ID:        id,
		SessionID: s.ID,
		PersonalInfo: PersonalInfo{
			FullName:    strings.TrimSpace(Str(fd.FullName)),
			Email:       email,
			Phone:       phone,
			CollegeName: strings.TrimSpace(Str(fd.CollegeName)),
			Department:  strings.TrimSpace(Str(fd.Department)),
			Role:        CanonicalRole(Str(fd.Role)),
			Year:        Str(fd.Year),
			Semester:    Str(fd.Semester),
		},
		ProjectDetails: ProjectDetails{
			Title:       strings.TrimSpace(Str(fd.ProjectTitle)),
			Description: strings.TrimSpace(Str(fd.ProjectDescription)),
			WebsiteURL:  strings.TrimSpace(Str(fd.WebsiteURL)),
			GithubRepo:  NormalizeGithubRepo(Str(fd.GithubRepo)),
		},
		MCQAnswers:  answers,
		MCQScore:    score,
		Status:      SubmissionStatusSubmitted,
		SubmittedAt: now,
		CreatedAt:   now,
	}
}

var roleAliases = map[string]string{
	"ui/ux":                   "UI/UX Designer",
	"ui ux":                   "UI/UX Designer",
	"ux":                      "UI/UX Designer",
	"ui":                      "UI/UX Designer",
	"ui/ux designer":          "UI/UX Designer",
	"ui ux designer":          "UI/UX Designer",
	"frontend developer":      "Frontend Developer",
	"frontend":                "Frontend Developer",
	"front-end":               "Frontend Developer",
	"backend developer":       "Backend Developer",
	"backend":                 "Backend Developer",
	"python developer":        "Python Developer",
	"python":                  "Python Developer",
	"full stack developer":    "Full Stack Developer",
	"full-stack developer":    "Full Stack Developer",
	"fullstack":               "Full Stack Developer",
	"devops":                  "DevOps Engineer",
	"devops engineer":         "DevOps Engineer",
	"data analytics":          "Data Analytics",
	"data analyst":            "Data Analytics",
	"data analytics engineer": "Data Analytics",
}

// CanonicalRole maps the free-text role a candidate applied for onto the
// canonical role names that also serve as question categories.
func CanonicalRole(role string) string {
	trimmed := strings.TrimSpace(role)
	if canonical, ok := roleAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// NormalizeGithubRepo trims a repository link and adds the scheme to bare
// github.com links.
func NormalizeGithubRepo(repo string) string {
	g := strings.TrimSpace(repo)
	if strings.HasPrefix(g, "github.com") {
		g = "https://" + g
	}
	return g
}
