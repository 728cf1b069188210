package mqtt

import "log"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// offlineQueue holds messages while the broker is unreachable. Readings are
// superseded by the next one, so only the newest is kept; everything else
// goes through a fixed-capacity FIFO that drops the oldest when full.
// Not safe for concurrent use; caller must synchronize.
type offlineQueue struct {
	buf      []bufferedMsg
	capacity int
	head     int // next write position
	count    int
	overflow bool // true if any message was dropped since last drain
	reading  *bufferedMsg
}

func newOfflineQueue(capacity int) *offlineQueue {
	return &offlineQueue{
		buf:      make([]bufferedMsg, capacity),
		capacity: capacity,
	}
}

func (q *offlineQueue) push(msg bufferedMsg) {
	if msg.topic == TopicReading {
		q.reading = &msg
		return
	}
	if q.count == q.capacity {
		if !q.overflow {
			log.Printf("mqtt: offline queue full (%d messages), dropping oldest", q.capacity)
			q.overflow = true
		}
		// head already points at the oldest
		q.buf[q.head] = msg
		q.head = (q.head + 1) % q.capacity
		return
	}
	q.buf[q.head] = msg
	q.head = (q.head + 1) % q.capacity
	q.count++
}

// drainAll returns queued messages oldest first, with the latest reading last.
func (q *offlineQueue) drainAll() []bufferedMsg {
	if q.count == 0 && q.reading == nil {
		return nil
	}

	result := make([]bufferedMsg, 0, q.count+1)
	start := (q.head - q.count + q.capacity) % q.capacity
	for i := 0; i < q.count; i++ {
		result = append(result, q.buf[(start+i)%q.capacity])
	}
	if q.reading != nil {
		result = append(result, *q.reading)
	}

	q.count = 0
	q.head = 0
	q.overflow = false
	q.reading = nil
	return result
}

func (q *offlineQueue) len() int {
	if q.reading != nil {
		return q.count + 1
	}
	return q.count
}
