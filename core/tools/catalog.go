package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// CallTransferrer hands the live call leg over to a human agent.
type CallTransferrer interface {
	Transfer(ctx context.Context, callSID string) (status string, err error)
}

type updateInsuranceQuoteParams struct {
	DentalCoverageType string `json:"dentalCoverageType" jsonschema:"enum=basic,enum=comprehensive,description=The type of dental coverage to add to the insurance quote."`
}

type updateInsuranceQuoteResult struct {
	UpdatedMonthlyPremium int `json:"updatedMonthlyPremium" jsonschema:"description=The updated monthly premium including the selected dental coverage."`
}

type findDentalCoverageOptionsParams struct {
	CurrentCoverageOptions struct {
		DentalCoverage string `json:"dentalCoverage" jsonschema:"enum=Yes,enum=No,description=Whether the customer already holds dental coverage."`
	} `json:"currentCoverageOptions" jsonschema:"description=The customer's current coverage situation."`
}

type dentalCoverageOption struct {
	OptionName    string `json:"optionName"`
	Benefits      string `json:"benefits"`
	PriceIncrease int    `json:"priceIncrease"`
}

type findDentalCoverageOptionsResult struct {
	DentalOptions []dentalCoverageOption `json:"dentalOptions" jsonschema:"description=Dental coverage options available to the customer."`
}

type transferCallParams struct {
	CallSid string `json:"callSid" jsonschema:"description=The unique identifier for the active phone call."`
}

type transferCallResult struct {
	Status string `json:"status" jsonschema:"description=Whether or not the customer call was successfully transferred."`
}

const (
	baseMonthlyPremium         = 354
	basicDentalPremium         = 20
	comprehensiveDentalPremium = 40
)

// Catalog builds the static tool manifest. It is assembled once at process
// start; NewRegistry then verifies every entry has a handler and a valid
// schema before any call is accepted.
func Catalog(transferrer CallTransferrer) []Entry {
	return []Entry{
		{
			Descriptor: Descriptor{
				Name:        "updateInsuranceQuote",
				Say:         "Let me update your insurance quote based on your selected dental coverage.",
				Description: "Updates the customer's insurance quote by adding either basic or comprehensive dental coverage and calculating the updated monthly premium.",
				Parameters:  schemaFor(&updateInsuranceQuoteParams{}),
				Returns:     schemaFor(&updateInsuranceQuoteResult{}),
			},
			Handler: updateInsuranceQuote,
		},
		{
			Descriptor: Descriptor{
				Name:        "findDentalCoverageOptions",
				Say:         "Let me look up the dental coverage options available to you.",
				Description: "Finds the dental coverage options the customer can add to their plan, based on the coverage they already hold.",
				Parameters:  schemaFor(&findDentalCoverageOptionsParams{}),
				Returns:     schemaFor(&findDentalCoverageOptionsResult{}),
			},
			Handler: findDentalCoverageOptions,
		},
		{
			Descriptor: Descriptor{
				Name:        "transferCall",
				Say:         "One moment while I transfer your call.",
				Description: "Transfers the customer to a live agent in case they request help from a real person.",
				Parameters:  schemaFor(&transferCallParams{}),
				Returns:     schemaFor(&transferCallResult{}),
			},
			Handler: transferCall(transferrer),
		},
	}
}

func updateInsuranceQuote(_ context.Context, args json.RawMessage) (string, error) {
	var params updateInsuranceQuoteParams
	if err := json.Unmarshal(args, &params); err != nil {
		return "", fmt.Errorf("failed to decode arguments: %w", err)
	}

	premium := baseMonthlyPremium
	switch params.DentalCoverageType {
	case "basic":
		premium += basicDentalPremium
	case "comprehensive":
		premium += comprehensiveDentalPremium
	}

	result, err := json.Marshal(updateInsuranceQuoteResult{UpdatedMonthlyPremium: premium})
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(result), nil
}

func findDentalCoverageOptions(_ context.Context, args json.RawMessage) (string, error) {
	var params findDentalCoverageOptionsParams
	if err := json.Unmarshal(args, &params); err != nil {
		return "", fmt.Errorf("failed to decode arguments: %w", err)
	}

	options := []dentalCoverageOption{
		{
			OptionName:    "Basic Dental Coverage",
			Benefits:      "Covers preventive care, basic procedures such as fillings and simple extractions.",
			PriceIncrease: basicDentalPremium,
		},
		{
			OptionName:    "Comprehensive Dental Coverage",
			Benefits:      "Includes basic coverage plus major procedures like crowns, bridges, and orthodontics.",
			PriceIncrease: comprehensiveDentalPremium,
		},
		{
			OptionName:    "Enhanced Dental & Vision Coverage",
			Benefits:      "Covers comprehensive dental care and adds vision benefits including exams, glasses, and contact lenses.",
			PriceIncrease: 55,
		},
	}

	// Customers who already hold dental coverage are only offered upgrades.
	if params.CurrentCoverageOptions.DentalCoverage == "Yes" {
		upgrades := options[:0]
		for _, option := range options {
			if option.OptionName != "Basic Dental Coverage" {
				upgrades = append(upgrades, option)
			}
		}
		options = upgrades
	}

	result, err := json.Marshal(findDentalCoverageOptionsResult{DentalOptions: options})
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(result), nil
}

func transferCall(transferrer CallTransferrer) Handler {
	return func(ctx context.Context, args json.RawMessage) (string, error) {
		var params transferCallParams
		if err := json.Unmarshal(args, &params); err != nil {
			return "", fmt.Errorf("failed to decode arguments: %w", err)
		}
		if transferrer == nil {
			return "", fmt.Errorf("call transfer is not configured")
		}

		status, err := transferrer.Transfer(ctx, params.CallSid)
		if err != nil {
			return "", fmt.Errorf("failed to transfer call: %w", err)
		}

		result, marshalErr := json.Marshal(transferCallResult{Status: status})
		if marshalErr != nil {
			return "", fmt.Errorf("failed to encode result: %w", marshalErr)
		}
		return string(result), nil
	}
}
