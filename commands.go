// Bot command generators. Each command synthesizes a single system message,
// appends it to the shared log and broadcasts it to everyone; address-based
// blocking applies to user chat only, never to bot output.

package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const (
	minDiceSides = 2
	maxDiceSides = 1000

	minCountdownSeconds = 1
	maxCountdownSeconds = 300

	minRandomBound = -1000000
	maxRandomBound = 1000000
)

func (r *Room) handleEightBall(question string) {
	response := eightBallResponses[rand.Intn(len(eightBallResponses))]
	r.systemBroadcast(eightBallName, fmt.Sprintf("🔮 %q\n\n%s", question, response))
	logf(r.cfg, "BOT: 8-Ball answered %q", question)
}

func (r *Room) handleJoke() {
	r.systemBroadcast(botName, jokes[rand.Intn(len(jokes))])
}

func (r *Room) handleFlip() {
	result := "Heads"
	if rand.Intn(2) == 1 {
		result = "Tails"
	}
	r.systemBroadcast(botName, fmt.Sprintf("🪙 The coin landed on... %s!", result))
}

func (r *Room) handleRoll(sides int) {
	if sides < minDiceSides {
		sides = minDiceSides
	}
	if sides > maxDiceSides {
		sides = maxDiceSides
	}

	result := rand.Intn(sides) + 1
	r.systemBroadcast(botName, fmt.Sprintf("🎲 Rolled a d%d: %d", sides, result))
}

func (r *Room) handleQuote() {
	r.systemBroadcast(botName, quotes[rand.Intn(len(quotes))])
}

// handleWorldClock reports the current time in a fixed set of zones. Zones
// missing from the host tz database are skipped.
func (r *Room) handleWorldClock() {
	zones := []struct {
		label string
		name  string
	}{
		{"UTC", "UTC"},
		{"New York", "America/New_York"},
		{"London", "Europe/London"},
		{"Berlin", "Europe/Berlin"},
		{"Tokyo", "Asia/Tokyo"},
		{"Sydney", "Australia/Sydney"},
	}

	now := time.Now()
	var sb strings.Builder
	sb.WriteString("🕐 World clock:")
	for _, zone := range zones {
		loc, err := time.LoadLocation(zone.name)
		if err != nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n%s: %s", zone.label, now.In(loc).Format("Mon 3:04 PM")))
	}

	r.systemBroadcast(botName, sb.String())
}

// handleRandom clamps both bounds so the span always fits in an int;
// unclamped client values could overflow max-min+1 and panic IntN.
func (r *Room) handleRandom(min, max int) {
	min = clampBound(min)
	max = clampBound(max)
	if min > max {
		min, max = max, min
	}
	result := min + rand.Intn(max-min+1)
	r.systemBroadcast(botName, fmt.Sprintf("🎰 Random number between %d and %d: %d", min, max, result))
}

func clampBound(n int) int {
	if n < minRandomBound {
		return minRandomBound
	}
	if n > maxRandomBound {
		return maxRandomBound
	}
	return n
}

func (r *Room) handleCountdown(seconds int) {
	if seconds < minCountdownSeconds {
		seconds = minCountdownSeconds
	}
	if seconds > maxCountdownSeconds {
		seconds = maxCountdownSeconds
	}

	r.systemBroadcast(countdownName, fmt.Sprintf("Countdown started: %d seconds!", seconds))
	logf(r.cfg, "BOT: Countdown of %ds started", seconds)

	time.AfterFunc(time.Duration(seconds)*time.Second, func() {
		r.later(func() {
			r.systemBroadcast(countdownName, fmt.Sprintf("⏰ Time's up! %d seconds have passed.", seconds))
		})
	})
}

// handleWeather resolves the city off-loop; the dispatch loop keeps serving
// other events while the lookup is in flight.
func (r *Room) handleWeather(city string) {
	go func() {
		report, err := r.weather.Current(context.Background(), city)
		r.later(func() {
			r.finishWeather(city, report, err)
		})
	}()
}

func (r *Room) finishWeather(city string, report *WeatherReport, err error) {
	if err != nil {
		r.systemBroadcast(weatherName, weatherErrorText(city, err))
		logf(r.cfg, "WEATHER: Lookup for %q failed: %v", city, err)
		return
	}

	r.systemBroadcast(weatherName, fmt.Sprintf("Weather in %s: %.1f°C, %s, humidity %d%%, wind %.1f m/s",
		report.Location, report.TempC, report.Description, report.Humidity, report.WindSpeed))
	logf(r.cfg, "WEATHER: Lookup for %q served", city)
}

func weatherErrorText(city string, err error) string {
	var werr *WeatherError
	if !errors.As(err, &werr) {
		return fmt.Sprintf("Something went wrong looking up %q.", city)
	}

	switch werr.Kind {
	case WeatherNotFound:
		return fmt.Sprintf("Could not find a city called %q.", city)
	case WeatherUnauthorized:
		return "The weather service rejected our credentials."
	case WeatherUnavailable:
		return "The weather service is currently unavailable. Try again later."
	case WeatherUnreachable:
		return "Could not reach the weather service. Check your connection."
	default:
		return fmt.Sprintf("Something went wrong looking up %q.", city)
	}
}
