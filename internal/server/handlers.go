package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ppiankov/ignoromenot/internal/model"
	"github.com/ppiankov/ignoromenot/internal/pipeline"
	"github.com/ppiankov/ignoromenot/internal/validate"
	"go.uber.org/zap"
)

// HealthCheck reports liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetBounds returns the data-derived widget defaults
func GetBounds(session *pipeline.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		bounds, err := session.Bounds()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, bounds)
	}
}

// ApplyFilter runs a pass with the FilterSpec in the request body
func ApplyFilter(session *pipeline.Session, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var spec model.FilterSpec
		if err := c.ShouldBindJSON(&spec); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		snapshot, err := session.Apply(c.Request.Context(), spec)
		if err != nil {
			body := gin.H{"error": err.Error()}
			if snapshot != nil {
				body["fallback"] = view(snapshot, false)
			}

			var specErr *validate.SpecError
			switch {
			case errors.As(err, &specErr):
				body["problems"] = specErr.Problems
				c.JSON(http.StatusBadRequest, body)
			case errors.Is(err, pipeline.ErrNoSource):
				c.JSON(http.StatusServiceUnavailable, body)
			default:
				logger.Error("filter pass failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, body)
			}
			return
		}

		c.JSON(http.StatusOK, view(snapshot, includeMentions(c)))
	}
}

// GetSnapshot returns the last published snapshot
func GetSnapshot(session *pipeline.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		snapshot := session.Current()
		if snapshot == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": pipeline.ErrNoSource.Error()})
			return
		}
		c.JSON(http.StatusOK, view(snapshot, includeMentions(c)))
	}
}

type mentionsResponse struct {
	Protein  model.Protein   `json:"protein"`
	Mentions []model.Mention `json:"mentions"`
	Sort     string          `json:"sort"`
}

// GetProteinMentions returns one protein's filtered mention table
func GetProteinMentions(session *pipeline.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		protein, mentions, order, ok := proteinMentions(c, session)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, mentionsResponse{Protein: protein, Mentions: mentions, Sort: order})
	}
}

// ExportProteinMentions streams one protein's filtered mention table as TSV
func ExportProteinMentions(session *pipeline.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		protein, mentions, _, ok := proteinMentions(c, session)
		if !ok {
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_mentions.tsv"`, protein.ID))
		c.Header("Content-Type", "text/tab-separated-values; charset=utf-8")
		c.Status(http.StatusOK)
		if err := pipeline.WriteMentionsTSV(c.Writer, mentions); err != nil {
			_ = c.Error(err)
		}
	}
}

// ExportProteins streams the filtered protein table as CSV
func ExportProteins(session *pipeline.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		snapshot := session.Current()
		if snapshot == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": pipeline.ErrNoSource.Error()})
			return
		}

		c.Header("Content-Disposition", `attachment; filename="proteins.csv"`)
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if err := pipeline.WriteProteinsCSV(c.Writer, snapshot.Proteins); err != nil {
			_ = c.Error(err)
		}
	}
}

// proteinMentions resolves the :id parameter against the current view and sorts its
// table. It writes the error response itself and reports false when it did.
func proteinMentions(c *gin.Context, session *pipeline.Session) (model.Protein, []model.Mention, string, bool) {
	snapshot := session.Current()
	if snapshot == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": pipeline.ErrNoSource.Error()})
		return model.Protein{}, nil, "", false
	}

	id := c.Param("id")
	protein, ok := snapshot.Protein(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("protein %s is not in the current view", id)})
		return model.Protein{}, nil, "", false
	}

	order := c.DefaultQuery("sort", pipeline.SortYearDesc)
	mentions, err := pipeline.SortMentions(snapshot.Mentions[id], order)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return model.Protein{}, nil, "", false
	}
	return protein, mentions, order, true
}

func includeMentions(c *gin.Context) bool {
	include, _ := strconv.ParseBool(c.Query("include_mentions"))
	return include
}

// view returns a shallow copy of the snapshot, without the mention index unless asked
func view(snapshot *model.Snapshot, withMentions bool) *model.Snapshot {
	out := *snapshot
	if !withMentions {
		out.Mentions = nil
	}
	return &out
}
