package trivia

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"trivia-arena/internal/domain"
)

// DefaultBaseURL points at the public Open Trivia DB API.
const DefaultBaseURL = "https://opentdb.com"

// Client talks to the trivia content API over HTTP.
type Client struct {
	baseURL string
	http    *http.Client

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type apiQuestion struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type questionsResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []apiQuestion `json:"results"`
}

type categoriesResponse struct {
	TriviaCategories []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"trivia_categories"`
}

// Questions fetches count questions, optionally narrowed by difficulty and
// category. Option order and the correct option's position are randomized
// here, once, so a question never changes after creation.
func (c *Client) Questions(ctx context.Context, difficulty domain.Difficulty, category *domain.Category, count int) ([]domain.Question, error) {
	params := url.Values{}
	params.Set("amount", strconv.Itoa(count))
	if difficulty != domain.DifficultyAny {
		params.Set("difficulty", string(difficulty))
	}
	if category != nil {
		params.Set("category", strconv.Itoa(category.ID))
	}

	var decoded questionsResponse
	if err := c.getJSON(ctx, c.baseURL+"/api.php?"+params.Encode(), &decoded); err != nil {
		return nil, err
	}
	if decoded.ResponseCode != 0 || len(decoded.Results) == 0 {
		if decoded.ResponseCode == 1 || len(decoded.Results) == 0 {
			return nil, domain.ErrNoQuestions
		}
		return nil, fmt.Errorf("trivia api response code %d", decoded.ResponseCode)
	}

	questions := make([]domain.Question, 0, len(decoded.Results))
	for i, q := range decoded.Results {
		questions = append(questions, c.buildQuestion(i+1, q))
	}
	return questions, nil
}

// Categories fetches the category catalog.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var decoded categoriesResponse
	if err := c.getJSON(ctx, c.baseURL+"/api_category.php", &decoded); err != nil {
		return nil, err
	}
	categories := make([]domain.Category, 0, len(decoded.TriviaCategories))
	for _, cat := range decoded.TriviaCategories {
		categories = append(categories, domain.Category{ID: cat.ID, Name: html.UnescapeString(cat.Name)})
	}
	return categories, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("trivia api request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("trivia api status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("trivia api decode: %w", err)
	}
	return nil
}

func (c *Client) buildQuestion(number int, q apiQuestion) domain.Question {
	difficulty, _ := domain.ParseDifficulty(q.Difficulty)
	out := domain.Question{
		Number:     number,
		Category:   html.UnescapeString(q.Category),
		Difficulty: difficulty.Display(),
		Text:       html.UnescapeString(q.Question),
	}

	if q.Type == "boolean" {
		// True/false questions keep a fixed two-entry option map.
		out.Options = map[int]string{1: "True", 2: "False"}
		if q.CorrectAnswer == "True" {
			out.CorrectOption = 1
		} else {
			out.CorrectOption = 2
		}
		return out
	}

	answers := make([]string, 0, len(q.IncorrectAnswers)+1)
	answers = append(answers, html.UnescapeString(q.CorrectAnswer))
	for _, a := range q.IncorrectAnswers {
		answers = append(answers, html.UnescapeString(a))
	}
	c.mu.Lock()
	c.rnd.Shuffle(len(answers), func(i, j int) {
		answers[i], answers[j] = answers[j], answers[i]
	})
	c.mu.Unlock()

	correct := html.UnescapeString(q.CorrectAnswer)
	out.Options = make(map[int]string, len(answers))
	for i, a := range answers {
		out.Options[i+1] = a
		if a == correct {
			out.CorrectOption = i + 1
		}
	}
	return out
}
