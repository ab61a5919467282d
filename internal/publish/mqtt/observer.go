package mqtt

import (
	"encoding/json"
	"time"

	"codeberg.org/mutker/laserlog/internal/datalog"
	"codeberg.org/mutker/laserlog/internal/errors"
	"codeberg.org/mutker/laserlog/internal/logger"
)

const maxPayloadSize = 1 << 20

type payload struct {
	Session string            `json:"session"`
	Seq     uint64            `json:"seq"`
	At      time.Time         `json:"at"`
	Values  map[string]string `json:"values"`
}

func encode(dp datalog.DataPoint) ([]byte, error) {
	b, err := json.Marshal(payload{
		Session: dp.SessionID,
		Seq:     dp.Sequence,
		At:      dp.At,
		Values:  dp.Values,
	})
	if err != nil {
		return nil, errors.New().Wrap(ErrPublishFailed, err)
	}
	if len(b) > maxPayloadSize {
		return nil, errors.New().WithData(ErrPayloadTooLarge, len(b))
	}

	return b, nil
}

// Observer publishes each data point to <prefix>/<serial>/datapoint.
type Observer struct {
	pub   Publisher
	topic string
	qos   byte
	log   logger.Logger
}

func NewObserver(pub Publisher, cfg Config, serial string) *Observer {
	return &Observer{
		pub:   pub,
		topic: DataPointTopic(cfg.TopicPrefix, serial),
		qos:   byte(cfg.QoS),
		log:   logger.Component("mqtt"),
	}
}

func (o *Observer) Topic() string { return o.topic }

func (o *Observer) OnDataPoint(dp datalog.DataPoint) {
	b, err := encode(dp)
	if err == nil {
		err = o.pub.Publish(o.topic, b, o.qos)
	}
	if err != nil {
		o.log.Warn().Err(err).Str("topic", o.topic).Uint64("seq", dp.Sequence).Msg("MQTT publish failed")
	}
}
