package main

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"

	"github.com/Gobd/apirouter"
	"github.com/Gobd/apirouter/is"
	"github.com/Gobd/apirouter/validate"
)

type Language string

const (
	LangEN Language = "en"
	LangDE Language = "de"
)

func (Language) ValueRules() []validate.Rule {
	return []validate.Rule{validate.In(LangEN, LangDE)}
}

type GetBookRequest struct {
	ID    int      `path:"id" json:"id"`
	Lang  Language `query:"lang" default:"en" json:"lang"`
	Trace string   `header:"x-trace-id" json:"trace_id"`
}

type Book struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

func (b *Book) Rules() []*validate.FieldRules {
	return []*validate.FieldRules{
		validate.Field(&b.Title, validate.Required, validate.Length(1, 200)),
		validate.Field(&b.Author, validate.Required),
	}
}

type CreateBookRequest struct {
	Body Book `json:"body"`
}

type UploadRequest struct {
	Cover *multipart.FileHeader `form:"cover" json:"cover"`
	Note  string                `form:"note" json:"note"`
}

type ContactRequest struct {
	Email string `query:"email" json:"email"`
}

func (r *ContactRequest) Rules() []*validate.FieldRules {
	return []*validate.FieldRules{
		validate.Field(&r.Email, validate.Required, is.Email),
	}
}

func main() {
	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := apirouter.ConfigFromEnv()
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}

	app := apirouter.NewFromConfig(cfg,
		apirouter.WithLogger(log),
		apirouter.WithServers(&openapi3.Server{URL: "http://localhost:8080"}),
		apirouter.WithSecurityScheme("bearer", &openapi3.SecurityScheme{
			Type: "http", Scheme: "bearer",
		}),
		apirouter.WithTagDescriptions(map[string]string{
			"books": "Library catalogue",
		}),
	)

	books := apirouter.NewRouter("/books", apirouter.WithTags("books"))

	apirouter.Get(books, "/{id}", func(ctx context.Context, req *GetBookRequest) (Book, error) {
		if req.ID == 0 {
			return Book{}, apirouter.Error(404, "book not found")
		}
		return Book{ID: req.ID, Title: "The Go Programming Language"}, nil
	}, apirouter.WithSummary("Fetch one book"))

	apirouter.Post(books, "", func(ctx context.Context, req *CreateBookRequest) (Book, error) {
		b := req.Body
		b.ID = 42
		return b, nil
	}, apirouter.WithStatus(201))

	apirouter.Post(books, "/{id}/cover", func(ctx context.Context, req *UploadRequest) (apirouter.Void, error) {
		if req.Cover == nil {
			return apirouter.Void{}, apirouter.Error(http.StatusBadRequest, "cover file is required")
		}
		fmt.Println("cover upload:", req.Cover.Filename, req.Note)
		return apirouter.Void{}, nil
	})

	apirouter.Get(app, "/contact", func(ctx context.Context, req *ContactRequest) (apirouter.Void, error) {
		return apirouter.Void{}, nil
	})

	app.RegisterAPI(books)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("listening", zap.String("addr", cfg.Addr))
	if err := app.ListenAndServe(ctx, cfg.Addr); err != nil {
		log.Fatal("serve", zap.Error(err))
	}
}
