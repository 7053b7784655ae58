package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
	"golang.org/x/sync/errgroup"

	model "duty-tracker.com/duty-tracker/pkg/models"
)

// StepsContext holds state shared between step definitions of one scenario.
type StepsContext struct {
	tc           *TestContext
	serverURL    string
	client       *http.Client
	response     *http.Response
	responseBody []byte
	duty         model.Duty
}

func NewStepsContext(tc *TestContext, serverURL string) *StepsContext {
	return &StepsContext{
		tc:        tc,
		serverURL: serverURL,
		client:    &http.Client{},
	}
}

func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, s.tc.ResetDuties(ctx)
	})

	sc.Step(`^the duty API is running$`, s.theDutyAPIIsRunning)

	// Request steps
	sc.Step(`^I send a "([^"]*)" request to "([^"]*)"$`, s.iSendARequestTo)
	sc.Step(`^I send a "([^"]*)" request to "([^"]*)" with body:$`, s.iSendARequestToWithBody)
	sc.Step(`^I send a "([^"]*)" request to the duty$`, s.iSendARequestToTheDuty)
	sc.Step(`^I send a "([^"]*)" request to the duty with body:$`, s.iSendARequestToTheDutyWithBody)
	sc.Step(`^I create (\d+) duties concurrently$`, s.iCreateDutiesConcurrently)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response should be a duty named "([^"]*)"$`, s.theResponseShouldBeADutyNamed)
	sc.Step(`^the response should be a list containing the duty$`, s.theResponseShouldBeAListContainingTheDuty)
	sc.Step(`^the response should be an empty list$`, s.theResponseShouldBeAnEmptyList)
	sc.Step(`^the response message should be "([^"]*)"$`, s.theResponseMessageShouldBe)

	// Storage steps
	sc.Step(`^the duties table should be empty$`, s.theDutiesTableShouldBeEmpty)
	sc.Step(`^the duty list should have (\d+) entries$`, s.theDutyListShouldHaveEntries)
}

func (s *StepsContext) theDutyAPIIsRunning(ctx context.Context) error {
	resp, err := s.client.Get(s.serverURL + "/api/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

func (s *StepsContext) doRequest(ctx context.Context, method, path, body string) error {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.serverURL+path, reader)
	if err != nil {
		return err
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	s.response = resp
	s.responseBody, err = io.ReadAll(resp.Body)
	return err
}

func (s *StepsContext) dutyPath() string {
	return fmt.Sprintf("/api/duties/%d", s.duty.ID)
}

// Request steps

func (s *StepsContext) iSendARequestTo(ctx context.Context, method, path string) error {
	return s.doRequest(ctx, method, path, "")
}

func (s *StepsContext) iSendARequestToWithBody(ctx context.Context, method, path string, body *godog.DocString) error {
	return s.doRequest(ctx, method, path, body.Content)
}

func (s *StepsContext) iSendARequestToTheDuty(ctx context.Context, method string) error {
	return s.doRequest(ctx, method, s.dutyPath(), "")
}

func (s *StepsContext) iSendARequestToTheDutyWithBody(ctx context.Context, method string, body *godog.DocString) error {
	return s.doRequest(ctx, method, s.dutyPath(), body.Content)
}

func (s *StepsContext) iCreateDutiesConcurrently(ctx context.Context, n int) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		payload, err := json.Marshal(model.DutyCreate{Name: fmt.Sprintf("Concurrent Duty %d", i)})
		if err != nil {
			return err
		}

		g.Go(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.serverURL+"/api/duties", bytes.NewReader(payload))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := s.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusCreated {
				return fmt.Errorf("expected status 201, got %d", resp.StatusCode)
			}
			return nil
		})
	}
	return g.Wait()
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(expectedStatus int) error {
	if s.response.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d: %s", expectedStatus, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseShouldBeADutyNamed(name string) error {
	duty, err := model.ParseDuty(s.responseBody)
	if err != nil {
		return fmt.Errorf("response is not a duty: %w", err)
	}
	if duty.Name != name {
		return fmt.Errorf("expected name %q, got %q", name, duty.Name)
	}
	if s.duty.ID != 0 && duty.ID != s.duty.ID {
		return fmt.Errorf("expected id %d, got %d", s.duty.ID, duty.ID)
	}

	s.duty = duty
	return nil
}

func (s *StepsContext) theResponseShouldBeAListContainingTheDuty() error {
	duties, err := model.ParseDuties(s.responseBody)
	if err != nil {
		return fmt.Errorf("response is not a duty list: %w", err)
	}
	for _, d := range duties {
		if d.ID == s.duty.ID && d.Name == s.duty.Name {
			return nil
		}
	}
	return fmt.Errorf("duty %d not found in %s", s.duty.ID, string(s.responseBody))
}

func (s *StepsContext) theResponseShouldBeAnEmptyList() error {
	duties, err := model.ParseDuties(s.responseBody)
	if err != nil {
		return fmt.Errorf("response is not a duty list: %w", err)
	}
	if len(duties) != 0 {
		return fmt.Errorf("expected an empty list, got %d duties", len(duties))
	}
	return nil
}

func (s *StepsContext) theResponseMessageShouldBe(expected string) error {
	var body struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return fmt.Errorf("failed to parse error body: %w", err)
	}
	if body.Message != expected {
		return fmt.Errorf("expected message %q, got %q", expected, body.Message)
	}
	return nil
}

// Storage steps

func (s *StepsContext) theDutiesTableShouldBeEmpty(ctx context.Context) error {
	n, err := s.tc.CountDuties(ctx)
	if err != nil {
		return err
	}
	if n != 0 {
		return fmt.Errorf("expected no stored duties, found %d", n)
	}
	return nil
}

func (s *StepsContext) theDutyListShouldHaveEntries(ctx context.Context, expected int) error {
	if err := s.doRequest(ctx, http.MethodGet, "/api/duties", ""); err != nil {
		return err
	}
	duties, err := model.ParseDuties(s.responseBody)
	if err != nil {
		return err
	}
	if len(duties) != expected {
		return fmt.Errorf("expected %d duties, got %d", expected, len(duties))
	}
	return nil
}
