package app

import (
	"context"
	"fmt"
	"log"
	"math"
	"net"
	"time"

	"github.com/kev-in-ta/CARISPAWProject/internal/framing"
	"github.com/kev-in-ta/CARISPAWProject/internal/orientation"
	"github.com/kev-in-ta/CARISPAWProject/internal/protocol"
	"github.com/kev-in-ta/CARISPAWProject/internal/transport"
)

// MockDeviceOptions configure a synthetic sensor module.
type MockDeviceOptions struct {
	Transport transport.Kind
	Addr      string
	Schema    protocol.Schema

	Rate  float64 // messages per second
	Count int     // stop after this many messages, 0 for no limit

	// CorruptEvery injects an undecodable frame after every n messages.
	CorruptEvery int
}

// MockMessage is what a module of the given schema would send t seconds
// into a run that follows orientation.MockPose.
func MockMessage(schema protocol.Schema, t float64) protocol.Message {
	accel, gyro := orientation.MockIMU(t, schema.Gravity())
	switch schema {
	case protocol.SchemaWheel:
		return &protocol.WheelUnit{
			TimeStamp: float32(t),
			Acc:       toFloat32(accel, 1),
			Angular:   toFloat32(gyro, 1),
		}
	default:
		pose := orientation.MockPose(t)
		return &protocol.FrameUnit{
			TimeStamp:  float32(t),
			SensorType: protocol.SensorIMU9,
			Acc:        toFloat32(accel, 1),
			Angular:    toFloat32(gyro, 180/math.Pi),
			Heading:    float32(pose.Yaw),
			Pitch:      float32(pose.Pitch),
			Roll:       float32(pose.Roll),
		}
	}
}

func toFloat32(v [3]float64, scale float64) [3]float32 {
	return [3]float32{float32(v[0] * scale), float32(v[1] * scale), float32(v[2] * scale)}
}

// RunMockDevice streams synthetic messages to an acquisition host. Over
// TCP it keeps dialling until the host listens, like the real modules.
func RunMockDevice(ctx context.Context, opts MockDeviceOptions) error {
	if opts.Rate <= 0 {
		opts.Rate = 100
	}

	var network string
	switch opts.Transport {
	case transport.KindTCP:
		network = "tcp"
	case transport.KindUDP:
		network = "udp"
	default:
		return fmt.Errorf("mock device: %s is not supported, use tcp or udp", opts.Transport)
	}

	conn, err := dialRetry(ctx, network, opts.Addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("mock: connected to %s over %s, sending %s units at %.0f Hz", opts.Addr, network, opts.Schema, opts.Rate)

	stream := network == "tcp"
	if stream {
		// start on a frame boundary
		if _, err := conn.Write([]byte{framing.Delimiter}); err != nil {
			return fmt.Errorf("mock device: %w", err)
		}
	}

	send := func(payload []byte) error {
		var b []byte
		if stream {
			b = framing.AppendFrame(nil, payload)
		} else {
			b = framing.Stuff(payload)
		}
		_, err := conn.Write(b)
		return err
	}

	period := time.Duration(float64(time.Second) / opts.Rate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for n := 0; opts.Count == 0 || n < opts.Count; n++ {
		t := float64(n) / opts.Rate
		if err := send(protocol.Encode(MockMessage(opts.Schema, t))); err != nil {
			return fmt.Errorf("mock device: send: %w", err)
		}
		if opts.CorruptEvery > 0 && (n+1)%opts.CorruptEvery == 0 {
			if _, err := conn.Write(corruptFrame(stream)); err != nil {
				return fmt.Errorf("mock device: send: %w", err)
			}
		}

		select {
		case <-ctx.Done():
			log.Printf("mock: stopped after %d messages", n+1)
			return nil
		case <-ticker.C:
		}
	}
	log.Printf("mock: sent %d messages", opts.Count)
	return nil
}

// corruptFrame is a COBS group that claims more bytes than it carries.
func corruptFrame(stream bool) []byte {
	if stream {
		return []byte{0x05, 0x01, framing.Delimiter}
	}
	return []byte{0x05, 0x01}
}

func dialRetry(ctx context.Context, network, addr string) (net.Conn, error) {
	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, network, addr)
		if err == nil {
			return conn, nil
		}
		log.Printf("mock: dial %s: %v; retrying", addr, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
}
