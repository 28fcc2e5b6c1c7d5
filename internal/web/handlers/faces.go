// Package handlers provides HTTP handlers for the web API.
// This file contains the FacesHandler with the three decision modes
// (check, verify, register) and the neighbor diagnostic.
package handlers

import (
	"log"
	"net/http"

	"github.com/kozaktomas/face-registry/internal/facematch"
	"github.com/kozaktomas/face-registry/internal/registry"
)

// FacesHandler handles face decision endpoints
type FacesHandler struct {
	service *registry.Service
}

// NewFacesHandler creates a new faces handler
func NewFacesHandler(service *registry.Service) *FacesHandler {
	return &FacesHandler{service: service}
}

// FaceRequest is the body shared by all face endpoints. Name is ignored by check.
type FaceRequest struct {
	Name       string    `json:"name"`
	Descriptor []float64 `json:"descriptor"`
	Limit      int       `json:"limit,omitempty"`
}

// CandidateResponse is an enrolled identity with its distance to the query
type CandidateResponse struct {
	Name     string   `json:"name"`
	Distance *float64 `json:"distance,omitempty"`
}

// CheckResponse represents the result of an identify decision
type CheckResponse struct {
	Outcome   facematch.Outcome  `json:"outcome"`
	Exists    bool               `json:"exists"`
	Name      string             `json:"name,omitempty"`
	Distance  *float64           `json:"distance,omitempty"`
	Closest   *CandidateResponse `json:"closest_match,omitempty"`
	Threshold float64            `json:"threshold"`
	Message   string             `json:"message"`
}

// VerifyResponse represents the result of a name claim verification
type VerifyResponse struct {
	Outcome    facematch.Outcome `json:"outcome"`
	Verified   bool              `json:"verified"`
	NameExists bool              `json:"name_exists"`
	Name       string            `json:"name"`
	Distance   *float64          `json:"distance,omitempty"`
	Message    string            `json:"message"`
}

// RegisterResponse represents the result of an enrollment attempt
type RegisterResponse struct {
	Outcome  facematch.Outcome  `json:"outcome"`
	Success  bool               `json:"success"`
	Name     string             `json:"name"`
	ID       string             `json:"id,omitempty"`
	Existing *CandidateResponse `json:"existing,omitempty"`
	Message  string             `json:"message"`
}

// NeighborsResponse lists the closest enrolled identities
type NeighborsResponse struct {
	Neighbors []CandidateResponse `json:"neighbors"`
	Threshold float64             `json:"threshold"`
}

func candidateResponse(c *facematch.Candidate) *CandidateResponse {
	if c == nil {
		return nil
	}
	return &CandidateResponse{Name: c.Name, Distance: distanceValue(c.Distance)}
}

// Check identifies a descriptor against the whole registry.
func (h *FacesHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req FaceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	res, err := h.service.Check(r.Context(), facematch.DescriptorFromFloat64(req.Descriptor))
	if err != nil {
		respondServiceError(w, "checking face", err)
		return
	}

	resp := CheckResponse{
		Outcome:   res.Outcome,
		Threshold: h.service.Threshold(),
	}
	switch res.Outcome {
	case facematch.OutcomeEmptyRegistry:
		resp.Message = "No existing users. Please register."
	case facematch.OutcomeIdentified:
		resp.Exists = true
		resp.Name = res.Candidate.Name
		resp.Distance = distanceValue(res.Candidate.Distance)
		resp.Message = "Face recognized"
	default:
		resp.Closest = candidateResponse(res.Candidate)
		resp.Message = "New face - please register"
	}

	respondJSON(w, http.StatusOK, resp)
}

// Verify checks a descriptor against the record enrolled under the claimed name.
func (h *FacesHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req FaceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	res, err := h.service.Verify(r.Context(), req.Name, facematch.DescriptorFromFloat64(req.Descriptor))
	if err != nil {
		respondServiceError(w, "verifying face", err)
		return
	}

	resp := VerifyResponse{
		Outcome: res.Outcome,
		Name:    res.Name,
	}
	if res.Candidate != nil {
		resp.Distance = distanceValue(res.Candidate.Distance)
	}
	switch res.Outcome {
	case facematch.OutcomeVerified:
		resp.Verified = true
		resp.NameExists = true
		resp.Message = "Access granted"
		log.Printf("Verified %q", sanitizeForLog(res.Name))
	case facematch.OutcomeRejected:
		resp.NameExists = true
		resp.Message = "Face does not match this name"
	default:
		resp.Message = "New user - please complete registration"
	}

	respondJSON(w, http.StatusOK, resp)
}

// Register enrolls a new identity if neither the name nor the face is known.
func (h *FacesHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req FaceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	res, rec, err := h.service.Register(r.Context(), req.Name, facematch.DescriptorFromFloat64(req.Descriptor))
	if err != nil {
		respondServiceError(w, "registering face", err)
		return
	}

	resp := RegisterResponse{
		Outcome: res.Outcome,
		Name:    res.Name,
	}
	switch res.Outcome {
	case facematch.OutcomeAccepted:
		resp.Success = true
		resp.ID = rec.ID
		resp.Message = "Registration successful"
		respondJSON(w, http.StatusCreated, resp)
	case facematch.OutcomeDuplicateFace:
		resp.Existing = candidateResponse(res.Existing)
		resp.Message = "This face appears to be already registered as " + res.Existing.Name + ". Please use that name."
		respondJSON(w, http.StatusConflict, resp)
	default:
		resp.Message = "Name already exists. Please choose a different name."
		respondJSON(w, http.StatusConflict, resp)
	}
}

// Neighbors lists the enrolled identities closest to a descriptor.
// The result is approximate and informational; it never decides anything.
func (h *FacesHandler) Neighbors(w http.ResponseWriter, r *http.Request) {
	var req FaceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	candidates, err := h.service.Neighbors(r.Context(), facematch.DescriptorFromFloat64(req.Descriptor), req.Limit)
	if err != nil {
		respondServiceError(w, "searching neighbors", err)
		return
	}

	resp := NeighborsResponse{
		Neighbors: make([]CandidateResponse, 0, len(candidates)),
		Threshold: h.service.Threshold(),
	}
	for i := range candidates {
		resp.Neighbors = append(resp.Neighbors, *candidateResponse(&candidates[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}
