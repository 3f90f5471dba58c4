package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/ericfisherdev/passvault/internal/domain/model"
	"github.com/ericfisherdev/passvault/internal/domain/port/driven"
)

const instrumentationName = "github.com/ericfisherdev/passvault/internal/application"

// CredentialService owns the mapping from (principal, label) to encrypted
// records. Plaintext exists here only transiently: between receipt and
// encryption on save, and between decryption and return on list.
type CredentialService struct {
	accounts  driven.AccountStore
	records   driven.RecordStore
	cipher    driven.Cipher
	generator *PasswordGenerator
	logger    *slog.Logger

	tracer          trace.Tracer
	saved           metric.Int64Counter
	deleted         metric.Int64Counter
	decryptFailures metric.Int64Counter
}

// NewCredentialService creates a CredentialService with all required
// dependencies. Telemetry uses the global otel providers, which are no-ops
// unless the process installs an SDK.
func NewCredentialService(
	accounts driven.AccountStore,
	records driven.RecordStore,
	cipher driven.Cipher,
	generator *PasswordGenerator,
	logger *slog.Logger,
) *CredentialService {
	meter := otel.Meter(instrumentationName)
	return &CredentialService{
		accounts:        accounts,
		records:         records,
		cipher:          cipher,
		generator:       generator,
		logger:          logger,
		tracer:          otel.Tracer(instrumentationName),
		saved:           newCounter(meter, logger, "passvault.credentials.saved", "Credential records created."),
		deleted:         newCounter(meter, logger, "passvault.credentials.deleted", "Credential records deleted."),
		decryptFailures: newCounter(meter, logger, "passvault.credentials.decrypt_failures", "Stored records that failed to decrypt."),
	}
}

func newCounter(meter metric.Meter, logger *slog.Logger, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		logger.Warn("failed to create counter, using no-op", "counter", name, "error", err)
		return noop.Int64Counter{}
	}
	return c
}

// Generate produces a password for opts. It has no side effects.
func (s *CredentialService) Generate(ctx context.Context, opts GenerateOptions) (string, error) {
	_, span := s.tracer.Start(ctx, "CredentialService.Generate")
	defer span.End()

	classes := opts.Classes()
	span.SetAttributes(
		attribute.Int("vault.length", opts.Length),
		attribute.String("vault.classes", classes.String()),
	)

	pw, err := s.generator.Generate(opts.Length, classes)
	if err != nil {
		return "", fail(span, err)
	}
	return pw, nil
}

// Save encrypts plaintext and stores it under label for owner, creating the
// owner's account on first use. The returned summary never carries secret
// material.
func (s *CredentialService) Save(ctx context.Context, owner, label, plaintext string) (model.RecordSummary, error) {
	ctx, span := s.tracer.Start(ctx, "CredentialService.Save")
	defer span.End()

	label = strings.TrimSpace(label)
	if label == "" {
		return model.RecordSummary{}, fail(span, fmt.Errorf("%w: label is required", model.ErrInvalidInput))
	}
	if plaintext == "" {
		return model.RecordSummary{}, fail(span, fmt.Errorf("%w: password is required", model.ErrInvalidInput))
	}

	acct, err := s.accounts.FindOrCreate(ctx, owner)
	if err != nil {
		return model.RecordSummary{}, fail(span, fmt.Errorf("resolve account: %w", err))
	}

	secret := []byte(plaintext)
	sealed, err := s.cipher.Encrypt(secret)
	clear(secret)
	if err != nil {
		return model.RecordSummary{}, fail(span, fmt.Errorf("seal credential: %w", err))
	}

	rec, err := s.records.Create(ctx, model.CredentialRecord{
		AccountID:  acct.ID,
		Label:      label,
		Ciphertext: sealed.Ciphertext,
		IV:         sealed.IV,
	})
	if err != nil {
		return model.RecordSummary{}, fail(span, fmt.Errorf("store credential: %w", err))
	}

	s.saved.Add(ctx, 1)
	span.SetAttributes(attribute.String("vault.record_id", rec.ID))

	return model.RecordSummary{
		ID:        rec.ID,
		Label:     rec.Label,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// List returns every record owned by owner, decrypted. A record that fails to
// decrypt is returned with Err set instead of aborting the whole list. An
// owner with no account has no records; no account is created.
func (s *CredentialService) List(ctx context.Context, owner string) ([]model.DecryptedRecord, error) {
	ctx, span := s.tracer.Start(ctx, "CredentialService.List")
	defer span.End()

	acct, err := s.accounts.Find(ctx, owner)
	if err != nil {
		return nil, fail(span, fmt.Errorf("resolve account: %w", err))
	}
	if acct == nil {
		return []model.DecryptedRecord{}, nil
	}

	records, err := s.records.ListByAccount(ctx, acct.ID)
	if err != nil {
		return nil, fail(span, fmt.Errorf("load credentials: %w", err))
	}

	out := make([]model.DecryptedRecord, 0, len(records))
	failures := 0
	for _, rec := range records {
		dr, err := s.open(rec)
		if err != nil {
			return nil, fail(span, err)
		}
		if !dr.OK() {
			failures++
		}
		out = append(out, dr)
	}

	if failures > 0 {
		s.decryptFailures.Add(ctx, int64(failures))
	}
	span.SetAttributes(
		attribute.Int("vault.records", len(out)),
		attribute.Int("vault.decrypt_failures", failures),
	)

	return out, nil
}

// Get returns one record owned by owner, decrypted. A record that fails to
// decrypt is returned with Err set, as in List. A missing record, a record
// owned by someone else, and an owner without an account all yield
// model.ErrNotFound.
func (s *CredentialService) Get(ctx context.Context, owner, id string) (model.DecryptedRecord, error) {
	ctx, span := s.tracer.Start(ctx, "CredentialService.Get")
	defer span.End()

	acct, err := s.accounts.Find(ctx, owner)
	if err != nil {
		return model.DecryptedRecord{}, fail(span, fmt.Errorf("resolve account: %w", err))
	}
	if acct == nil {
		return model.DecryptedRecord{}, fmt.Errorf("get credential %s: %w", id, model.ErrNotFound)
	}

	rec, err := s.records.GetOwned(ctx, acct.ID, id)
	if err != nil {
		if model.IsNotFound(err) {
			return model.DecryptedRecord{}, err
		}
		return model.DecryptedRecord{}, fail(span, fmt.Errorf("load credential %s: %w", id, err))
	}

	dr, err := s.open(*rec)
	if err != nil {
		return model.DecryptedRecord{}, fail(span, err)
	}
	if !dr.OK() {
		s.decryptFailures.Add(ctx, 1)
	}
	return dr, nil
}

// open decrypts rec. A DecryptionFailure is reported on the returned record;
// any other cipher error is returned.
func (s *CredentialService) open(rec model.CredentialRecord) (model.DecryptedRecord, error) {
	dr := model.DecryptedRecord{
		ID:        rec.ID,
		Label:     rec.Label,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}

	plain, err := s.cipher.Decrypt(rec.Sealed())
	switch {
	case err == nil:
		dr.Plaintext = string(plain)
		clear(plain)
	case model.IsDecryptionFailure(err):
		dr.Err = err
		s.logger.Warn("credential could not be decrypted", "record_id", rec.ID, "error", err)
	default:
		return model.DecryptedRecord{}, fmt.Errorf("decrypt credential %s: %w", rec.ID, err)
	}
	return dr, nil
}

// Delete removes record id if owner owns it. A missing record, a record owned
// by someone else, and an owner without an account all yield model.ErrNotFound.
func (s *CredentialService) Delete(ctx context.Context, owner, id string) error {
	ctx, span := s.tracer.Start(ctx, "CredentialService.Delete")
	defer span.End()

	acct, err := s.accounts.Find(ctx, owner)
	if err != nil {
		return fail(span, fmt.Errorf("resolve account: %w", err))
	}
	if acct == nil {
		return fmt.Errorf("delete credential %s: %w", id, model.ErrNotFound)
	}

	if err := s.records.DeleteOwned(ctx, acct.ID, id); err != nil {
		if model.IsNotFound(err) {
			return err
		}
		return fail(span, fmt.Errorf("delete credential %s: %w", id, err))
	}

	s.deleted.Add(ctx, 1)
	return nil
}

// fail records err on span and returns it unchanged.
func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
