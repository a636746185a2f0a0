package dto

// CreateJobRequest is the body of POST /job
type CreateJobRequest struct {
	URI string `json:"uri" binding:"required"`
}

// CreateJobResponse is returned by POST /job
type CreateJobResponse struct {
	ID string `json:"id"`
}

// JobDTO is the job record returned by GET /job/:id
type JobDTO struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	SourceURI string `json:"sourceUri"`
	ResultURI string `json:"resultUri,omitempty"`
	Error     string `json:"error,omitempty"`
}
