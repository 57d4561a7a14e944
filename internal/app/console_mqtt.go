package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/fatih/color"

	"github.com/kev-in-ta/CARISPAWProject/internal/acquisition"
	"github.com/kev-in-ta/CARISPAWProject/internal/config"
	"github.com/kev-in-ta/CARISPAWProject/internal/orientation"
)

var (
	poseLabel   = color.New(color.FgCyan, color.Bold).SprintFunc()
	rateLabel   = color.New(color.FgGreen, color.Bold).SprintFunc()
	statusLabel = color.New(color.FgYellow, color.Bold).SprintFunc()
	downLabel   = color.New(color.FgRed, color.Bold).SprintFunc()
)

// deviceOf extracts <device> from <prefix>/<device>/<kind>.
func deviceOf(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return topic
	}
	return parts[len(parts)-2]
}

func RunConsoleMQTT() error {
	cfg := config.Get()

	client, err := ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}

	subs := map[string]mqtt.MessageHandler{
		cfg.Topic("+", "pose"): func(_ mqtt.Client, msg mqtt.Message) {
			var p orientation.Pose
			if err := json.Unmarshal(msg.Payload(), &p); err != nil {
				log.Printf("console: pose unmarshal error: %v", err)
				return
			}
			fmt.Printf("%s %-8s HEADING=%8.3f  PITCH=%7.2f  ROLL=%7.2f\n",
				poseLabel("[POSE]"), deviceOf(msg.Topic()), p.Yaw, p.Pitch, p.Roll)
		},
		cfg.Topic("+", "rate"): func(_ mqtt.Client, msg mqtt.Message) {
			var r acquisition.RateReport
			if err := json.Unmarshal(msg.Payload(), &r); err != nil {
				log.Printf("console: rate unmarshal error: %v", err)
				return
			}
			fmt.Printf("%s %-8s %d samples at %.1f Hz\n",
				rateLabel("[RATE]"), r.Device, r.Samples, r.Hz)
		},
		cfg.Topic("+", "status"): func(_ mqtt.Client, msg mqtt.Message) {
			var s struct {
				Device string `json:"device"`
				Status string `json:"status"`
				Time   string `json:"time"`
			}
			if err := json.Unmarshal(msg.Payload(), &s); err != nil {
				log.Printf("console: status unmarshal error: %v", err)
				return
			}
			label := statusLabel("[STAT]")
			if s.Status == acquisition.StatusDisconnected.String() {
				label = downLabel("[STAT]")
			}
			fmt.Printf("%s %-8s %s (%s)\n", label, s.Device, s.Status, s.Time)
		},
	}

	for topic, handler := range subs {
		token := client.Subscribe(topic, 0, handler)
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("console: subscribed to %s", topic)
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
