package compare

import (
	"fmt"
	"os"

	"go.keploy.io/comparator/config"
	"go.keploy.io/comparator/pkg/models"
	"go.keploy.io/comparator/utils"
	"gopkg.in/yaml.v3"
)

// LoadParams builds the rules of a job. A rules file keeps the order of its
// entries; inline rules are taken in name order.
func LoadParams(rulesFile string, rules map[string]interface{}) (*models.Parameters, error) {
	if rulesFile != "" {
		data, err := os.ReadFile(rulesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read rules file: %w", err)
		}
		params := models.NewParameters()
		if err := yaml.Unmarshal(data, params); err != nil {
			return nil, models.NewRuleConfigError("rules file %s: %v", rulesFile, err)
		}
		return params, nil
	}
	params, err := models.ParametersFromMap(rules)
	if err != nil {
		return nil, models.NewRuleConfigError("rules: %v", err)
	}
	return params, nil
}

// LoadRequest reads the documents and rules of a resolved job.
func LoadRequest(j config.Job) (Request, error) {
	req := Request{Name: j.Name, Format: j.Format}
	if j.Encoded != nil {
		req.Encoded = *j.Encoded
	}
	var err error
	if req.Expected, err = utils.ReadInput(j.Expected); err != nil {
		return req, err
	}
	if req.Actual, err = utils.ReadInput(j.Actual); err != nil {
		return req, err
	}
	if req.Params, err = LoadParams(j.RulesFile, j.Rules); err != nil {
		return req, err
	}
	return req, nil
}
