package transit

import (
	"fmt"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/kentrehber/durak/internal/models"
)

const gtfsRealtimeVersion = "2.0"

// BuildTripUpdates renders one estimated arrival per line per stop as a
// GTFS-Realtime TripUpdates feed. Entity ids are "<stop>:<line>".
func BuildTripUpdates(stops []models.Stop, est *Estimator, now time.Time) *gtfs.FeedMessage {
	feed := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String(gtfsRealtimeVersion),
			Incrementality:      gtfs.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(uint64(now.Unix())),
		},
	}

	for _, stop := range stops {
		for _, arr := range est.Arrivals(stop) {
			eta := now.Add(time.Duration(arr.MinutesAway) * time.Minute)
			feed.Entity = append(feed.Entity, &gtfs.FeedEntity{
				Id: proto.String(stop.ID + ":" + arr.Line),
				TripUpdate: &gtfs.TripUpdate{
					Trip: &gtfs.TripDescriptor{
						RouteId: proto.String(arr.Line),
					},
					StopTimeUpdate: []*gtfs.TripUpdate_StopTimeUpdate{
						{
							StopId: proto.String(stop.ID),
							Arrival: &gtfs.TripUpdate_StopTimeEvent{
								Time: proto.Int64(eta.Unix()),
							},
						},
					},
				},
			})
		}
	}

	return feed
}

// MarshalFeed encodes a feed to its protobuf wire form
func MarshalFeed(feed *gtfs.FeedMessage) ([]byte, error) {
	body, err := proto.Marshal(feed)
	if err != nil {
		return nil, fmt.Errorf("encoding feed protobuf: %w", err)
	}
	return body, nil
}

// FeedArrival is one stop time update read back from a feed
type FeedArrival struct {
	StopID      string    `json:"stop_id"`
	Line        string    `json:"line"`
	ArrivalTime time.Time `json:"arrival_time"`
	MinutesAway int       `json:"minutes_away"`
}

// ParseTripUpdates decodes a TripUpdates feed, skipping updates without
// an arrival or departure time.
func ParseTripUpdates(body []byte, now time.Time) ([]FeedArrival, error) {
	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		return nil, fmt.Errorf("parsing feed protobuf: %w", err)
	}

	var arrivals []FeedArrival
	for _, entity := range feed.GetEntity() {
		tripUpdate := entity.GetTripUpdate()
		if tripUpdate == nil {
			continue
		}

		routeID := tripUpdate.GetTrip().GetRouteId()
		for _, stu := range tripUpdate.GetStopTimeUpdate() {
			ts := stu.GetArrival().GetTime()
			if ts == 0 {
				ts = stu.GetDeparture().GetTime()
			}
			if ts == 0 {
				continue
			}

			at := time.Unix(ts, 0)
			arrivals = append(arrivals, FeedArrival{
				StopID:      stu.GetStopId(),
				Line:        routeID,
				ArrivalTime: at,
				MinutesAway: int(at.Sub(now).Minutes()),
			})
		}
	}

	return arrivals, nil
}
