package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"football-trends/logger"
)

// CacheInvalidator drops cached data for a fixture and its teams.
type CacheInvalidator interface {
	Invalidate(fixtureID int, teamIDs ...int) int
}

// LiveFeedConfig configures the MQTT live score subscription.
type LiveFeedConfig struct {
	Broker   string
	Topic    string
	Username string
	Password string
}

// LiveFeed listens to live match updates and evicts statistics that the
// update makes stale, so the next request refetches them.
type LiveFeed struct {
	cfg         LiveFeedConfig
	invalidator CacheInvalidator
	client      mqtt.Client
	log         *logrus.Entry
}

func NewLiveFeed(cfg LiveFeedConfig, invalidator CacheInvalidator) *LiveFeed {
	return &LiveFeed{
		cfg:         cfg,
		invalidator: invalidator,
		log:         logger.With("live"),
	}
}

// Connect establishes connection to the broker and subscribes to the topic.
func (f *LiveFeed) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(f.cfg.Broker)
	opts.SetUsername(f.cfg.Username)
	opts.SetPassword(f.cfg.Password)
	opts.SetClientID(fmt.Sprintf("football_trends_%d", time.Now().UnixNano()))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		f.log.WithError(err).Warn("connection lost")
	})
	// resubscribe after every (re)connect
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		token := c.Subscribe(f.cfg.Topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
			f.HandleMessage(msg.Topic(), msg.Payload())
		})
		if token.Wait() && token.Error() != nil {
			f.log.WithError(token.Error()).WithField("topic", f.cfg.Topic).Error("subscribe failed")
			return
		}
		f.log.WithField("topic", f.cfg.Topic).Info("subscribed")
	})

	f.client = mqtt.NewClient(opts)
	token := f.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect: %w", token.Error())
	}
	return nil
}

// Disconnect closes the connection to the broker.
func (f *LiveFeed) Disconnect() {
	if f.client != nil && f.client.IsConnected() {
		f.client.Disconnect(250)
	}
}

// liveUpdate is the subset of a live payload we care about. It accepts both
// the nested fixture shape and a flat one.
type liveUpdate struct {
	Fixture struct {
		ID int `json:"id"`
	} `json:"fixture"`
	Teams struct {
		Home struct {
			ID int `json:"id"`
		} `json:"home"`
		Away struct {
			ID int `json:"id"`
		} `json:"away"`
	} `json:"teams"`
	FixtureID  int `json:"fixture_id"`
	HomeTeamID int `json:"home_team_id"`
	AwayTeamID int `json:"away_team_id"`
}

// HandleMessage evicts cache entries for the fixture and teams named by a
// live update. A fixture id in the last topic segment is used when the
// payload has none.
func (f *LiveFeed) HandleMessage(topic string, payload []byte) {
	var upd liveUpdate
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &upd); err != nil {
			f.log.WithError(err).WithField("topic", topic).Debug("ignoring non-JSON live message")
		}
	}

	fixtureID := upd.Fixture.ID
	if fixtureID == 0 {
		fixtureID = upd.FixtureID
	}
	if fixtureID == 0 {
		fixtureID = topicFixtureID(topic)
	}
	home := upd.Teams.Home.ID
	if home == 0 {
		home = upd.HomeTeamID
	}
	away := upd.Teams.Away.ID
	if away == 0 {
		away = upd.AwayTeamID
	}

	if fixtureID == 0 && home == 0 && away == 0 {
		return
	}
	n := f.invalidator.Invalidate(fixtureID, home, away)
	f.log.WithFields(logrus.Fields{
		"fixture": fixtureID,
		"home":    home,
		"away":    away,
		"evicted": n,
	}).Debug("live update")
}

func topicFixtureID(topic string) int {
	parts := strings.Split(strings.TrimRight(topic, "/"), "/")
	if len(parts) == 0 {
		return 0
	}
	id, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || id < 0 {
		return 0
	}
	return id
}
