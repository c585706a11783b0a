package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Catalog Methods
// -----------------------------------------------------------------------------

// GetJobWithCompany retrieves a job and, when it has one, its company.
// Returns nil, nil when the job does not exist.
func (db *DB) GetJobWithCompany(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	var j Job
	var (
		companyID    *uuid.UUID
		companyName  *string
		domain       *string
		website      *string
		linkedInURL  *string
		industryTags []string
	)
	err := db.pool.QueryRow(ctx,
		`SELECT j.id, j.company_id, j.title, j.description, j.location, j.source_url, j.status,
		        j.created_at, j.updated_at,
		        c.id, c.name, c.domain, c.website, c.linkedin_url, c.industry_tags
		 FROM jobs j
		 LEFT JOIN companies c ON c.id = j.company_id
		 WHERE j.id = $1`,
		jobID,
	).Scan(&j.ID, &j.CompanyID, &j.Title, &j.Description, &j.Location, &j.SourceURL, &j.Status,
		&j.CreatedAt, &j.UpdatedAt,
		&companyID, &companyName, &domain, &website, &linkedInURL, &industryTags)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if companyID != nil && companyName != nil {
		j.Company = &Company{
			ID:           *companyID,
			Name:         *companyName,
			Domain:       domain,
			Website:      website,
			LinkedInURL:  linkedInURL,
			IndustryTags: industryTags,
		}
	}
	return &j, nil
}

// GetCompanyByID retrieves a company by its UUID
func (db *DB) GetCompanyByID(ctx context.Context, id uuid.UUID) (*Company, error) {
	var c Company
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, domain, website, linkedin_url, industry_tags, created_at, updated_at
		 FROM companies WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.Domain, &c.Website, &c.LinkedInURL, &c.IndustryTags, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &c, nil
}

// CreateCompany inserts a catalog company.
func (db *DB) CreateCompany(ctx context.Context, input CompanyCreateInput) (*Company, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("company name cannot be empty")
	}
	tags := input.IndustryTags
	if tags == nil {
		tags = []string{}
	}

	var c Company
	err := db.pool.QueryRow(ctx,
		`INSERT INTO companies (name, domain, website, linkedin_url, industry_tags)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, name, domain, website, linkedin_url, industry_tags, created_at, updated_at`,
		input.Name, input.Domain, input.Website, input.LinkedInURL, tags,
	).Scan(&c.ID, &c.Name, &c.Domain, &c.Website, &c.LinkedInURL, &c.IndustryTags, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	return &c, nil
}

// CreateJob inserts a catalog job.
func (db *DB) CreateJob(ctx context.Context, input JobCreateInput) (*Job, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("job title cannot be empty")
	}

	var j Job
	err := db.pool.QueryRow(ctx,
		`INSERT INTO jobs (company_id, title, description, location, source_url)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, company_id, title, description, location, source_url, status, created_at, updated_at`,
		input.CompanyID, input.Title, input.Description, input.Location, input.SourceURL,
	).Scan(&j.ID, &j.CompanyID, &j.Title, &j.Description, &j.Location, &j.SourceURL, &j.Status, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return &j, nil
}
