package service

import (
	"context"
	"log/slog"
	"time"

	"screenguard/internal/realtime/models"
	screening "screenguard/internal/screening/models"
	"screenguard/pkg/casefeed"
)

// ScreeningEngine is the phonetic/similarity pipeline consulted for names
// that are not short-circuited by an override list.
type ScreeningEngine interface {
	ScreenName(ctx context.Context, name string, entityType screening.EntityType) screening.ScreeningResult
	ScreenMerchant(ctx context.Context, legalName, tradingName string) screening.ScreeningResult
}

// WhitelistChecker reports approved false positives to suppress.
type WhitelistChecker interface {
	IsWhitelisted(ctx context.Context, entityID, entityType string) bool
}

// CustomWatchlistChecker reports membership on institution-curated blocklists.
type CustomWatchlistChecker interface {
	IsEntityOnCustomWatchlist(ctx context.Context, name string, entityType screening.EntityType) bool
}

// MerchantDirectory resolves a merchant reference to its registered names.
type MerchantDirectory interface {
	Lookup(ctx context.Context, merchantID string) (*models.Merchant, error)
}

// Metrics is the subset of screening metrics the decision path records.
type Metrics interface {
	IncBlockedTxn()
}

// Config toggles which parties of a transaction are screened and whether a
// match actually blocks.
type Config struct {
	Enabled              bool
	BlockOnMatch         bool
	ScreenMerchants      bool
	ScreenCounterparties bool
}

// DefaultConfig screens both parties and blocks on match.
func DefaultConfig() Config {
	return Config{
		Enabled:              true,
		BlockOnMatch:         true,
		ScreenMerchants:      true,
		ScreenCounterparties: true,
	}
}

// Service makes the per-transaction block/allow decision. It holds no
// workflow state; case creation happens downstream off the published feed.
type Service struct {
	engine    ScreeningEngine
	whitelist WhitelistChecker
	custom    CustomWatchlistChecker
	merchants MerchantDirectory
	publisher casefeed.Publisher
	logger    *slog.Logger
	metrics   Metrics
	cfg       Config
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithMerchantDirectory(d MerchantDirectory) Option {
	return func(s *Service) {
		s.merchants = d
	}
}

func WithPublisher(p casefeed.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func New(engine ScreeningEngine, whitelist WhitelistChecker, custom CustomWatchlistChecker, cfg Config, opts ...Option) *Service {
	s := &Service{
		engine:    engine,
		whitelist: whitelist,
		custom:    custom,
		logger:    slog.Default(),
		cfg:       cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScreenTransaction screens the merchant and counterparty of a transaction
// and returns the combined decision.
func (s *Service) ScreenTransaction(ctx context.Context, tx models.Transaction) models.TransactionScreeningResult {
	result := models.TransactionScreeningResult{TransactionID: tx.ID}
	if !s.cfg.Enabled {
		return result
	}

	if s.cfg.ScreenMerchants && tx.MerchantID != "" {
		if match := s.screenMerchant(ctx, tx.MerchantID); match != nil {
			result.Matches = append(result.Matches, *match)
		}
	}

	if s.cfg.ScreenCounterparties && tx.CounterpartyName != "" {
		if match := s.screenCounterparty(ctx, tx.CounterpartyName); match != nil {
			result.Matches = append(result.Matches, *match)
		}
	}

	anyBlocking := false
	for _, m := range result.Matches {
		if m.Blocking {
			anyBlocking = true
			break
		}
	}
	result.ShouldBlock = anyBlocking && s.cfg.BlockOnMatch

	if result.ShouldBlock {
		if s.metrics != nil {
			s.metrics.IncBlockedTxn()
		}
		s.logger.Warn("transaction blocked by sanctions screening",
			"transaction_id", tx.ID, "match_count", len(result.Matches))
	}
	s.publishHits(ctx, result)
	return result
}

func (s *Service) screenMerchant(ctx context.Context, merchantID string) *models.ScreeningMatch {
	if s.whitelist.IsWhitelisted(ctx, merchantID, string(screening.EntityTypeOrganization)) {
		s.logger.Debug("merchant whitelisted, skipping screening", "merchant_id", merchantID)
		return nil
	}

	legalName, tradingName := merchantID, ""
	if s.merchants != nil {
		merchant, err := s.merchants.Lookup(ctx, merchantID)
		if err != nil {
			s.logger.Error("merchant lookup failed, screening by reference only",
				"merchant_id", merchantID, "error", err)
		} else if merchant != nil {
			legalName, tradingName = merchant.LegalName, merchant.TradingName
		}
	}

	screened := s.engine.ScreenMerchant(ctx, legalName, tradingName)
	if !screened.HasMatches() {
		return nil
	}
	return &models.ScreeningMatch{
		EntityID:     merchantID,
		EntityKind:   models.KindMerchant,
		ScreenedName: legalName,
		Result:       screened,
		Blocking:     true,
	}
}

func (s *Service) screenCounterparty(ctx context.Context, name string) *models.ScreeningMatch {
	// Curated blocklist entries block regardless of similarity scoring.
	if s.custom.IsEntityOnCustomWatchlist(ctx, name, screening.EntityTypePerson) {
		return &models.ScreeningMatch{
			EntityKind:   models.KindCounterparty,
			ScreenedName: name,
			Result: screening.ScreeningResult{
				ScreenedName:      name,
				EntityType:        screening.EntityTypePerson,
				Status:            screening.StatusMatch,
				Matches:           []screening.Match{},
				ScreenedAt:        time.Now().UTC(),
				ScreeningProvider: screening.ProviderWatchlistStore,
			},
			Blocking: true,
		}
	}

	if s.whitelist.IsWhitelisted(ctx, name, string(screening.EntityTypePerson)) {
		s.logger.Debug("counterparty whitelisted, skipping screening", "name", name)
		return nil
	}

	screened := s.engine.ScreenName(ctx, name, screening.EntityTypePerson)
	if !screened.HasMatches() {
		return nil
	}
	return &models.ScreeningMatch{
		EntityKind:   models.KindCounterparty,
		ScreenedName: name,
		Result:       screened,
		Blocking:     true,
	}
}

func (s *Service) publishHits(ctx context.Context, result models.TransactionScreeningResult) {
	if s.publisher == nil || len(result.Matches) == 0 {
		return
	}
	for _, m := range result.Matches {
		hit := casefeed.SanctionsHit{
			TransactionID: result.TransactionID,
			EntityKind:    string(m.EntityKind),
			ScreenedName:  m.ScreenedName,
			Status:        string(m.Result.Status),
			HighestScore:  m.Result.HighestMatchScore,
			MatchCount:    m.Result.MatchCount,
			Blocked:       result.ShouldBlock,
			OccurredAt:    m.Result.ScreenedAt,
		}
		if err := s.publisher.PublishSanctionsHit(ctx, hit); err != nil {
			s.logger.Error("failed to publish sanctions hit",
				"transaction_id", result.TransactionID, "error", err)
		}
	}
}
