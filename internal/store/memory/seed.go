package memory

import "github.com/spigell/job-matcher/internal/matching"

// MockUserID is the id of the profile available in a seeded store.
const MockUserID = "1234-abcd-5678-efgh"

var mockProfile = matching.ProfileRecord{
	Profile: matching.Profile{
		UserID:    MockUserID,
		Email:     "jane@test.com",
		FirstName: "Jane",
		LastName:  "Doe",
	},
	ResumeText: "Computer science student with experience in Python, React, and REST APIs. " +
		"Familiar with SQL, data analysis, backend development, machine learning, " +
		"JavaScript frameworks, and cloud deployment.",
	PreferencesJSON: []byte(`{"location": "New York", "job_type": "Software Engineer", "remote": true, "salary_min": 85000}`),
}

var mockJobs = []matching.Job{
	{ID: "job-001", Title: "Junior Software Engineer", Company: "TechCorp", Location: "Remote", Description: "Python developer with REST API experience."},
	{ID: "job-002", Title: "Frontend Developer", Company: "StartupXYZ", Location: "New York", Description: "React developer for fast-paced startup."},
	{ID: "job-003", Title: "Data Analyst", Company: "BigCo", Location: "Remote", Description: "Analyze datasets using Python and SQL."},
	{ID: "job-004", Title: "Backend Software Engineer", Company: "AlphaTech", Location: "New York", Description: "Backend dev with Python experience."},
	{ID: "job-005", Title: "Full Stack Software Engineer", Company: "BetaSoft", Location: "New York", Description: "Python, React, REST API required."},
	{ID: "job-006", Title: "Mobile Developer", Company: "GammaApps", Location: "Boston", Description: "Develop iOS & Android apps with React Native."},
	{ID: "job-007", Title: "DevOps Engineer", Company: "CloudNine", Location: "San Francisco", Description: "Experience with AWS, Docker, and CI/CD."},
	{ID: "job-008", Title: "Machine Learning Engineer", Company: "AI Labs", Location: "Remote", Description: "Python, TensorFlow, PyTorch, data pipelines."},
	{ID: "job-009", Title: "Product Manager", Company: "FinTechCo", Location: "New York", Description: "Agile experience, tech-savvy, Python familiarity."},
	{ID: "job-010", Title: "QA Automation Engineer", Company: "SoftTest", Location: "Remote", Description: "Automated tests in Python and Selenium."},
	{ID: "job-011", Title: "Frontend Engineer", Company: "WebWorks", Location: "Chicago", Description: "React, TypeScript, CSS, responsive web apps."},
	{ID: "job-012", Title: "Data Scientist", Company: "DataVision", Location: "New York", Description: "Python, SQL, ML models, data visualization."},
	{ID: "job-013", Title: "Cloud Solutions Architect", Company: "SkyTech", Location: "Remote", Description: "AWS, GCP, architecture, Python scripting."},
	{ID: "job-014", Title: "Backend Developer", Company: "MegaSoft", Location: "Boston", Description: "Node.js, Python, database design."},
	{ID: "job-015", Title: "AI Research Engineer", Company: "DeepMindX", Location: "Remote", Description: "Deep learning, Python, research experience."},
}
