package archive_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/okian/bingonight/internal/adapters/archive"
	"github.com/okian/bingonight/internal/domain/model"
	"github.com/okian/bingonight/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type object struct {
	bucket      string
	contentType string
	body        []byte
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]object
	err     error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]object)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = object{
		bucket:      aws.ToString(in.Bucket),
		contentType: aws.ToString(in.ContentType),
		body:        body,
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) get(key string) (object, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[key]
	return o, ok
}

func TestArchiver(t *testing.T) {
	Convey("Given an archiver over a fake bucket", t, func() {
		client := newFakeS3()
		a, err := archive.NewWithClient(client, "games", archive.WithPrefix("/party/"))
		So(err, ShouldBeNil)
		So(a.Name(), ShouldEqual, "archive")
		ctx := context.Background()

		Convey("Handle writes an event under its session", func() {
			ev, err := model.NewEvent("s1", model.EventBallDrawn, model.BallPayload{Number: 7, Letter: "B", Display: "B-7", Remaining: 74})
			So(err, ShouldBeNil)
			ev.ID = "e1"
			ev.Seq = 3

			So(a.Handle(ctx, *ev), ShouldBeNil)

			key := "party/events/s1/00000003-ball-drawn.json"
			So(a.EventKey(ev), ShouldEqual, key)
			obj, ok := client.get(key)
			So(ok, ShouldBeTrue)
			So(obj.bucket, ShouldEqual, "games")
			So(obj.contentType, ShouldEqual, "application/json")

			var got model.Event
			So(json.Unmarshal(obj.body, &got), ShouldBeNil)
			var ball model.BallPayload
			So(got.Decode(&ball), ShouldBeNil)
			So(ball.Display, ShouldEqual, "B-7")
		})

		Convey("ArchiveSession writes the session with its events", func() {
			s := &model.Session{ID: "s1", Code: "PARTY 1"}
			events := []*model.Event{
				{ID: "e1", SessionID: "s1", Seq: 1, Type: model.EventSessionCreated},
				{ID: "e2", SessionID: "s1", Seq: 2, Type: model.EventGameStarted},
			}
			So(a.ArchiveSession(ctx, s, events), ShouldBeNil)

			obj, ok := client.get("party/sessions/party-1-s1.json")
			So(ok, ShouldBeTrue)
			var doc struct {
				Session model.Session `json:"session"`
				Events  []model.Event `json:"events"`
			}
			So(json.Unmarshal(obj.body, &doc), ShouldBeNil)
			So(doc.Session.Code, ShouldEqual, "PARTY 1")
			So(len(doc.Events), ShouldEqual, 2)
			So(doc.Events[1].Type, ShouldEqual, model.EventGameStarted)
		})

		Convey("Client failures are returned", func() {
			client.err = errors.New("bucket gone")
			err := a.Handle(ctx, model.Event{ID: "e1", SessionID: "s1", Type: model.EventGameEnded})
			So(err, ShouldNotBeNil)
			So(errors.Is(err, client.err), ShouldBeTrue)
		})
	})

	Convey("A bucket is required", t, func() {
		_, err := archive.NewWithClient(newFakeS3(), "")
		So(errors.Is(err, archive.ErrMissingBucket), ShouldBeTrue)

		_, err = archive.New(context.Background(), archive.Config{})
		So(errors.Is(err, archive.ErrMissingBucket), ShouldBeTrue)
	})
}
