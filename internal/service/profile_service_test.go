package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"dalada-backend/internal/model"
	"dalada-backend/internal/repository/postgres"
)

// -------------------- FAKES --------------------

type fakeCandidateRepo struct {
	profiles map[string]*model.CandidateProfile // keyed by user ID
	seq      int
}

func newFakeCandidateRepo() *fakeCandidateRepo {
	return &fakeCandidateRepo{profiles: map[string]*model.CandidateProfile{}}
}

func (r *fakeCandidateRepo) Create(_ context.Context, profile *model.CandidateProfile, languages []model.CandidateLanguage) (*model.CandidateProfile, error) {
	r.seq++
	cp := *profile
	cp.ID = fmt.Sprintf("cand-%d", r.seq)
	cp.Languages = nil
	for _, l := range languages {
		r.seq++
		l.ID = fmt.Sprintf("lang-%d", r.seq)
		l.CandidateID = cp.ID
		cp.Languages = append(cp.Languages, l)
	}
	if cp.Languages == nil {
		cp.Languages = []model.CandidateLanguage{}
	}
	r.profiles[cp.UserID] = &cp
	out := cp
	return &out, nil
}

func (r *fakeCandidateRepo) GetByUserID(_ context.Context, userID string) (*model.CandidateProfile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	cp.Languages = append([]model.CandidateLanguage{}, p.Languages...)
	return &cp, nil
}

func (r *fakeCandidateRepo) Update(_ context.Context, profile *model.CandidateProfile, languages []model.CandidateLanguage, replaceLanguages bool) (*model.CandidateProfile, error) {
	stored, ok := r.profiles[profile.UserID]
	if !ok {
		return nil, postgres.ErrProfileNotFound
	}
	keptLanguages := stored.Languages
	cp := *profile
	cp.ID = stored.ID
	if replaceLanguages {
		cp.Languages = nil
		for _, l := range languages {
			r.seq++
			l.ID = fmt.Sprintf("lang-%d", r.seq)
			l.CandidateID = cp.ID
			cp.Languages = append(cp.Languages, l)
		}
		if cp.Languages == nil {
			cp.Languages = []model.CandidateLanguage{}
		}
	} else {
		cp.Languages = keptLanguages
	}
	r.profiles[cp.UserID] = &cp
	out := cp
	return &out, nil
}

func (r *fakeCandidateRepo) DeleteByUserID(_ context.Context, userID string) error {
	if _, ok := r.profiles[userID]; !ok {
		return postgres.ErrProfileNotFound
	}
	delete(r.profiles, userID)
	return nil
}

func (r *fakeCandidateRepo) byCandidateID(candidateID string) *model.CandidateProfile {
	for _, p := range r.profiles {
		if p.ID == candidateID {
			return p
		}
	}
	return nil
}

func (r *fakeCandidateRepo) UpsertLanguage(_ context.Context, candidateID string, lang model.CandidateLanguage) (*model.CandidateLanguage, error) {
	p := r.byCandidateID(candidateID)
	if p == nil {
		return nil, postgres.ErrProfileNotFound
	}
	for i := range p.Languages {
		if p.Languages[i].Language == lang.Language {
			p.Languages[i].Level = lang.Level
			out := p.Languages[i]
			return &out, nil
		}
	}
	r.seq++
	lang.ID = fmt.Sprintf("lang-%d", r.seq)
	lang.CandidateID = candidateID
	p.Languages = append(p.Languages, lang)
	out := lang
	return &out, nil
}

func (r *fakeCandidateRepo) DeleteLanguage(_ context.Context, candidateID, language string) error {
	p := r.byCandidateID(candidateID)
	if p == nil {
		return postgres.ErrProfileNotFound
	}
	for i := range p.Languages {
		if p.Languages[i].Language == language {
			p.Languages = append(p.Languages[:i], p.Languages[i+1:]...)
			return nil
		}
	}
	return postgres.ErrProfileNotFound
}

func (r *fakeCandidateRepo) setField(userID string, set func(*model.CandidateProfile)) error {
	p, ok := r.profiles[userID]
	if !ok {
		return postgres.ErrProfileNotFound
	}
	set(p)
	return nil
}

func (r *fakeCandidateRepo) SetResumeURL(_ context.Context, userID string, url *string) error {
	return r.setField(userID, func(p *model.CandidateProfile) { p.ResumeURL = url })
}

func (r *fakeCandidateRepo) SetVideoURL(_ context.Context, userID string, url *string) error {
	return r.setField(userID, func(p *model.CandidateProfile) { p.VideoURL = url })
}

func (r *fakeCandidateRepo) SetPhotoURL(_ context.Context, userID string, url *string) error {
	return r.setField(userID, func(p *model.CandidateProfile) { p.PhotoURL = url })
}

func (r *fakeCandidateRepo) AddCertificate(_ context.Context, userID, url string) error {
	return r.setField(userID, func(p *model.CandidateProfile) {
		p.CertificateURLs = append(p.CertificateURLs, url)
	})
}

func (r *fakeCandidateRepo) RemoveCertificate(_ context.Context, userID, url string) error {
	return r.setField(userID, func(p *model.CandidateProfile) {
		p.CertificateURLs = removeString(p.CertificateURLs, url)
	})
}

func (r *fakeCandidateRepo) AddTimezone(_ context.Context, userID, timezone string) error {
	return r.setField(userID, func(p *model.CandidateProfile) {
		p.Timezones = append(p.Timezones, timezone)
	})
}

func (r *fakeCandidateRepo) RemoveTimezone(_ context.Context, userID, timezone string) error {
	return r.setField(userID, func(p *model.CandidateProfile) {
		p.Timezones = removeString(p.Timezones, timezone)
	})
}

func removeString(s []string, v string) []string {
	out := s[:0]
	for _, item := range s {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}

type fakeEmployerRepo struct {
	profiles map[string]*model.EmployerProfile
	seq      int
}

func newFakeEmployerRepo() *fakeEmployerRepo {
	return &fakeEmployerRepo{profiles: map[string]*model.EmployerProfile{}}
}

func (r *fakeEmployerRepo) Create(_ context.Context, profile *model.EmployerProfile) (*model.EmployerProfile, error) {
	r.seq++
	cp := *profile
	cp.ID = fmt.Sprintf("emp-%d", r.seq)
	r.profiles[cp.UserID] = &cp
	out := cp
	return &out, nil
}

func (r *fakeEmployerRepo) GetByUserID(_ context.Context, userID string) (*model.EmployerProfile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeEmployerRepo) Update(_ context.Context, profile *model.EmployerProfile) (*model.EmployerProfile, error) {
	stored, ok := r.profiles[profile.UserID]
	if !ok {
		return nil, postgres.ErrProfileNotFound
	}
	cp := *profile
	cp.ID = stored.ID
	r.profiles[cp.UserID] = &cp
	out := cp
	return &out, nil
}

func (r *fakeEmployerRepo) DeleteByUserID(_ context.Context, userID string) error {
	if _, ok := r.profiles[userID]; !ok {
		return postgres.ErrProfileNotFound
	}
	delete(r.profiles, userID)
	return nil
}

func (r *fakeEmployerRepo) SetLogoURL(_ context.Context, userID string, url *string) error {
	p, ok := r.profiles[userID]
	if !ok {
		return postgres.ErrProfileNotFound
	}
	p.LogoURL = url
	return nil
}

// -------------------- HARNESS --------------------

func newProfileService() (*ProfileService, *fakeCandidateRepo, *fakeEmployerRepo) {
	candidates := newFakeCandidateRepo()
	employers := newFakeEmployerRepo()
	return NewProfileService(candidates, employers, zap.NewNop()), candidates, employers
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func createCandidate(t *testing.T, svc *ProfileService, userID string) *model.CandidateProfile {
	t.Helper()
	profile, err := svc.CreateCandidate(context.Background(), userID, &CandidateProfileInput{
		FullName: strPtr("Jane Doe"),
		City:     strPtr("Lisbon"),
		Skills:   []string{"go", "sql"},
		Languages: []LanguageInput{
			{Language: "English", Level: "C1"},
			{Language: "Portuguese", Level: "NATIVE_SPEAKER"},
		},
	})
	if err != nil {
		t.Fatalf("create candidate: %v", err)
	}
	return profile
}

// -------------------- CANDIDATE --------------------

func TestCreateCandidateProfile(t *testing.T) {
	svc, _, _ := newProfileService()

	profile := createCandidate(t, svc, "user-1")

	if profile.FullName != "Jane Doe" {
		t.Errorf("FullName = %q", profile.FullName)
	}
	if len(profile.Languages) != 2 {
		t.Fatalf("languages = %d, want 2", len(profile.Languages))
	}
	if profile.Languages[1].Level != model.LevelNative {
		t.Errorf("level = %s, want NATIVE_SPEAKER normalized to NATIVE", profile.Languages[1].Level)
	}
}

func TestCreateCandidateProfileConflict(t *testing.T) {
	svc, _, _ := newProfileService()
	createCandidate(t, svc, "user-1")

	_, err := svc.CreateCandidate(context.Background(), "user-1", &CandidateProfileInput{
		FullName: strPtr("Jane Again"),
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestCreateCandidateProfileValidation(t *testing.T) {
	svc, _, _ := newProfileService()
	ctx := context.Background()

	if _, err := svc.CreateCandidate(ctx, "user-1", &CandidateProfileInput{}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("missing fullName: err = %v, want ErrInvalidRequest", err)
	}

	_, err := svc.CreateCandidate(ctx, "user-1", &CandidateProfileInput{
		FullName:  strPtr("Jane Doe"),
		Languages: []LanguageInput{{Language: "Klingon", Level: "FLUENT"}},
	})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("bad level: err = %v, want ErrInvalidRequest", err)
	}
}

func TestGetCandidateNotFound(t *testing.T) {
	svc, _, _ := newProfileService()

	if _, err := svc.GetCandidate(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateCandidateMergePatch(t *testing.T) {
	svc, _, _ := newProfileService()
	ctx := context.Background()
	createCandidate(t, svc, "user-1")

	// Patch one field; everything else, languages included, stays put.
	updated, err := svc.UpdateCandidate(ctx, "user-1", &CandidateProfileInput{
		Salary: intPtr(90000),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FullName != "Jane Doe" || updated.City == nil || *updated.City != "Lisbon" {
		t.Errorf("untouched fields changed: %+v", updated)
	}
	if updated.Salary == nil || *updated.Salary != 90000 {
		t.Errorf("Salary = %v, want 90000", updated.Salary)
	}
	if len(updated.Languages) != 2 {
		t.Errorf("languages = %d, want 2 kept", len(updated.Languages))
	}

	// A provided language list replaces the stored one wholesale.
	updated, err = svc.UpdateCandidate(ctx, "user-1", &CandidateProfileInput{
		Languages: []LanguageInput{{Language: "Spanish", Level: "B2"}},
	})
	if err != nil {
		t.Fatalf("update languages: %v", err)
	}
	if len(updated.Languages) != 1 || updated.Languages[0].Language != "Spanish" {
		t.Errorf("languages = %+v, want only Spanish", updated.Languages)
	}
}

func TestUpdateCandidateNotFound(t *testing.T) {
	svc, _, _ := newProfileService()

	_, err := svc.UpdateCandidate(context.Background(), "ghost", &CandidateProfileInput{
		City: strPtr("Porto"),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteCandidate(t *testing.T) {
	svc, _, _ := newProfileService()
	ctx := context.Background()
	createCandidate(t, svc, "user-1")

	if err := svc.DeleteCandidate(ctx, "user-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetCandidate(ctx, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: err = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteCandidate(ctx, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestCandidateLanguageOps(t *testing.T) {
	svc, _, _ := newProfileService()
	ctx := context.Background()

	if _, err := svc.UpsertCandidateLanguage(ctx, "ghost", LanguageInput{Language: "English", Level: "B1"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("upsert without profile: err = %v, want ErrNotFound", err)
	}

	createCandidate(t, svc, "user-1")

	lang, err := svc.UpsertCandidateLanguage(ctx, "user-1", LanguageInput{Language: "English", Level: "C2"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if lang.Level != model.LevelC2 {
		t.Errorf("level = %s, want C2", lang.Level)
	}

	if _, err := svc.UpsertCandidateLanguage(ctx, "user-1", LanguageInput{Language: "", Level: "B1"}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("empty language: err = %v, want ErrInvalidRequest", err)
	}

	if err := svc.DeleteCandidateLanguage(ctx, "user-1", "English"); err != nil {
		t.Fatalf("delete language: %v", err)
	}
	if err := svc.DeleteCandidateLanguage(ctx, "user-1", "Klingon"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete unknown language: err = %v, want ErrNotFound", err)
	}
}

func TestCandidateAttachments(t *testing.T) {
	svc, candidates, _ := newProfileService()
	ctx := context.Background()
	createCandidate(t, svc, "user-1")

	if err := svc.SetCandidateResume(ctx, "user-1", strPtr("https://cdn/resume.pdf")); err != nil {
		t.Fatalf("set resume: %v", err)
	}
	if err := svc.SetCandidatePhoto(ctx, "user-1", strPtr("https://cdn/photo.jpg")); err != nil {
		t.Fatalf("set photo: %v", err)
	}
	if err := svc.SetCandidateVideo(ctx, "user-1", strPtr("https://cdn/intro.mp4")); err != nil {
		t.Fatalf("set video: %v", err)
	}
	if err := svc.SetCandidateVideo(ctx, "user-1", nil); err != nil {
		t.Fatalf("clear video: %v", err)
	}

	p := candidates.profiles["user-1"]
	if p.ResumeURL == nil || *p.ResumeURL != "https://cdn/resume.pdf" {
		t.Errorf("ResumeURL = %v", p.ResumeURL)
	}
	if p.VideoURL != nil {
		t.Errorf("VideoURL = %v, want cleared", p.VideoURL)
	}

	if err := svc.AddCandidateCertificate(ctx, "user-1", "https://cdn/cert-1.pdf"); err != nil {
		t.Fatalf("add certificate: %v", err)
	}
	if err := svc.AddCandidateCertificate(ctx, "user-1", "https://cdn/cert-2.pdf"); err != nil {
		t.Fatalf("add certificate: %v", err)
	}
	if err := svc.RemoveCandidateCertificate(ctx, "user-1", "https://cdn/cert-1.pdf"); err != nil {
		t.Fatalf("remove certificate: %v", err)
	}
	if got := candidates.profiles["user-1"].CertificateURLs; len(got) != 1 || got[0] != "https://cdn/cert-2.pdf" {
		t.Errorf("CertificateURLs = %v", got)
	}

	if err := svc.AddCandidateTimezone(ctx, "user-1", "UTC+1"); err != nil {
		t.Fatalf("add timezone: %v", err)
	}
	timezones, err := svc.ListCandidateTimezones(ctx, "user-1")
	if err != nil {
		t.Fatalf("list timezones: %v", err)
	}
	if len(timezones) != 1 || timezones[0] != "UTC+1" {
		t.Errorf("timezones = %v", timezones)
	}
	if err := svc.RemoveCandidateTimezone(ctx, "user-1", "UTC+1"); err != nil {
		t.Fatalf("remove timezone: %v", err)
	}

	// Validation and missing-profile mapping.
	if err := svc.SetCandidateResume(ctx, "user-1", strPtr("  ")); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("blank resume url: err = %v, want ErrInvalidRequest", err)
	}
	if err := svc.AddCandidateCertificate(ctx, "ghost", "https://cdn/cert.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("certificate without profile: err = %v, want ErrNotFound", err)
	}
}

// -------------------- EMPLOYER --------------------

func TestEmployerProfileCRUD(t *testing.T) {
	svc, _, employers := newProfileService()
	ctx := context.Background()

	if _, err := svc.CreateEmployer(ctx, "user-2", &EmployerProfileInput{}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("missing companyName: err = %v, want ErrInvalidRequest", err)
	}

	profile, err := svc.CreateEmployer(ctx, "user-2", &EmployerProfileInput{
		CompanyName: strPtr("Acme GmbH"),
		Industry:    strPtr("Manufacturing"),
	})
	if err != nil {
		t.Fatalf("create employer: %v", err)
	}
	if profile.CompanyName != "Acme GmbH" {
		t.Errorf("CompanyName = %q", profile.CompanyName)
	}

	if _, err := svc.CreateEmployer(ctx, "user-2", &EmployerProfileInput{CompanyName: strPtr("Again")}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate create: err = %v, want ErrConflict", err)
	}

	updated, err := svc.UpdateEmployer(ctx, "user-2", &EmployerProfileInput{
		Description: strPtr("We make things."),
	})
	if err != nil {
		t.Fatalf("update employer: %v", err)
	}
	if updated.CompanyName != "Acme GmbH" || updated.Industry == nil {
		t.Errorf("untouched fields changed: %+v", updated)
	}
	if updated.Description == nil || *updated.Description != "We make things." {
		t.Errorf("Description = %v", updated.Description)
	}

	if err := svc.SetEmployerLogo(ctx, "user-2", strPtr("https://cdn/logo.png")); err != nil {
		t.Fatalf("set logo: %v", err)
	}
	if p := employers.profiles["user-2"]; p.LogoURL == nil || *p.LogoURL != "https://cdn/logo.png" {
		t.Errorf("LogoURL = %v", p.LogoURL)
	}
	if err := svc.SetEmployerLogo(ctx, "user-2", nil); err != nil {
		t.Fatalf("clear logo: %v", err)
	}

	if err := svc.DeleteEmployer(ctx, "user-2"); err != nil {
		t.Fatalf("delete employer: %v", err)
	}
	if _, err := svc.GetEmployer(ctx, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: err = %v, want ErrNotFound", err)
	}
	if err := svc.SetEmployerLogo(ctx, "user-2", strPtr("https://cdn/logo.png")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("logo without profile: err = %v, want ErrNotFound", err)
	}
}
