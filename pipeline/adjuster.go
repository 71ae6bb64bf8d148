package pipeline

import (
	"context"
	"log"
	"sort"
	"strconv"

	"pl_adjuster/logging"
	"pl_adjuster/models"
	"pl_adjuster/pricelabs"
	"pl_adjuster/pricing"
)

// AdjustListing runs the full fetch-filter-transform-submit sequence for
// one listing. Failures are converted to an error Outcome here and never
// escape, so a bad listing cannot take down the batch.
func (r *Runner) AdjustListing(ctx context.Context, listing models.Listing, opts Options) models.Outcome {
	outcome := models.Outcome{
		ListingID:   listing.ID.String(),
		ListingName: listing.Name,
		PMS:         listing.PMS,
		Status:      models.OutcomeSuccess,
	}
	profile := r.cfg.Profile(listing.PMS)

	log.Printf("Processing %s (ID: %s) using PMS: %s", listing.Name, outcome.ListingID, listing.PMS)

	overrides, err := r.api.GetOverrides(ctx, outcome.ListingID, listing.PMS)
	if err != nil {
		outcome.Status = models.OutcomeError
		outcome.Reason = "failed to fetch overrides: " + err.Error()
		r.auditError(listing, 0, 0, outcome.Reason)
		return outcome
	}

	eligible := pricing.EligibleOverrides(overrides, r.now())
	outcome.Skipped = len(overrides) - len(eligible)
	if len(eligible) == 0 {
		return outcome
	}

	sort.Slice(eligible, func(i, j int) bool { return eligible[i].Date < eligible[j].Date })

	submission := make([]models.Override, 0, len(eligible))
	for _, o := range eligible {
		oldPrice, _ := strconv.ParseFloat(o.Price, 64)
		newPrice := pricing.AdjustedPrice(oldPrice, opts.Increase, opts.Percent)

		adjusted := models.Override{
			Date:      o.Date,
			Price:     strconv.FormatInt(newPrice, 10),
			PriceType: models.PriceTypeFixed,
			Currency:  overrideCurrency(o, listing, profile.Currency),
			MinStay:   overrideMinStay(o, listing, profile.MinStay),
		}
		submission = append(submission, adjusted)

		if opts.DryRun && len(outcome.Preview) < 5 {
			outcome.Preview = append(outcome.Preview, models.PriceChange{
				Date:     o.Date,
				OldPrice: oldPrice,
				NewPrice: newPrice,
				Currency: adjusted.Currency,
			})
		}
	}
	outcome.Changes = len(submission)

	if opts.DryRun {
		return outcome
	}

	err = r.api.UpdateOverrides(ctx, outcome.ListingID, pricelabs.UpdateRequest{
		UpdateChildren: profile.UpdateChildren,
		Overrides:      submission,
		PMS:            listing.PMS,
	})
	if err != nil {
		outcome.Status = models.OutcomeError
		outcome.Reason = "failed to update overrides: " + err.Error()
		r.auditError(listing, 0, 0, outcome.Reason)
		return outcome
	}

	log.Printf("Successfully updated %d prices for %s", len(submission), listing.Name)
	r.auditSubmission(listing, eligible, submission, opts)
	return outcome
}

// auditSubmission writes one audit row per submitted price. The source
// overrides carry the check-in and check-out dates, which do not travel
// on the write.
func (r *Runner) auditSubmission(listing models.Listing, source, submission []models.Override, opts Options) {
	if r.audit == nil {
		return
	}
	reason := "Increase"
	if !opts.Increase {
		reason = "Decrease"
	}
	for i, adjusted := range submission {
		price, _ := strconv.ParseFloat(adjusted.Price, 64)
		minStay := 0
		if adjusted.MinStay != nil {
			minStay = *adjusted.MinStay
		}
		r.audit.PriceUpdate(logging.PriceRecord{
			ListingID:   listing.ID.String(),
			ListingName: listing.Name,
			PMS:         listing.PMS,
			Reason:      reason,
			StartDate:   adjusted.Date,
			EndDate:     adjusted.Date,
			Price:       price,
			Currency:    adjusted.Currency,
			PriceType:   adjusted.PriceType,
			MinStay:     minStay,
			MinPrice:    listing.MinPrice,
			MaxPrice:    listing.MaxPrice,
			CheckIn:     source[i].CheckIn,
			CheckOut:    source[i].CheckOut,
		})
	}
}

func (r *Runner) auditError(listing models.Listing, oldPrice, newPrice float64, detail string) {
	if r.audit == nil {
		return
	}
	currency := listing.Currency
	if currency == "" {
		currency = "USD"
	}
	r.audit.Error(logging.ErrorRecord{
		ListingID:   listing.ID.String(),
		ListingName: listing.Name,
		PMS:         listing.PMS,
		StartDate:   "N/A",
		EndDate:     "N/A",
		OldPrice:    oldPrice,
		NewPrice:    newPrice,
		Currency:    currency,
		Detail:      detail,
	})
}

func overrideCurrency(o models.Override, listing models.Listing, profileCurrency string) string {
	if o.Currency != "" {
		return o.Currency
	}
	if listing.Currency != "" {
		return listing.Currency
	}
	if profileCurrency != "" {
		return profileCurrency
	}
	return "USD"
}

func overrideMinStay(o models.Override, listing models.Listing, profileMinStay int) *int {
	if o.MinStay != nil {
		return o.MinStay
	}
	if listing.MinStay != nil {
		return listing.MinStay
	}
	stay := profileMinStay
	if stay <= 0 {
		stay = 1
	}
	return &stay
}
